package survey

// Live holds what the currently rendered page shows of one question. The
// answer generator prefers these counts over the configured ones since the
// page is the ground truth at answer time.
type Live struct {
	// TypeCode is the raw type attribute of the question container.
	TypeCode       string
	Options        int
	ScaleItems     int
	DropdownValues []string
	MatrixRows     int
	// MatrixColumns excludes the row label cell.
	MatrixColumns int
	ReorderItems  int
}
