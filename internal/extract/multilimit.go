package extract

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/jsonquery"
	"golang.org/x/net/html"
)

var multiLimitKeys = []string{
	"max",
	"maxvalue",
	"maxcount",
	"maxchoice",
	"maxselect",
	"selectmax",
	"maxnum",
	"maxlimit",
	"data-max",
}

// The patterns are tried in order and the first match wins.
var multiLimitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)最多(?:只能|可|可以)?(?:选|选择)?[^\d]{0,3}(\d+)`),
	regexp.MustCompile(`(?i)(?:至多|不超过|限选)[^\d]{0,3}(\d+)`),
	regexp.MustCompile(`(?i)(?:select|choose)\s+(?:up to|no more than|at most|a maximum of)\s*(\d+)`),
	regexp.MustCompile(`(?i)(?:up to|no more than|at most|maximum of)\s*(\d+)\s*(?:options?|choices?|items?)`),
	regexp.MustCompile(`(?i)(?:maximum|max)\s*(?:of\s*)?(\d+)\s*(?:options?|choices?)`),
}

// multiLimit detects the maximum number of selectable options of a multiple
// choice question: first from well known attributes, then from JSON valued
// attributes carrying one of those keys and finally from the question text.
func multiLimit(container *goquery.Selection) (int, bool) {
	if container.Length() == 0 {
		return 0, false
	}
	node := container.Get(0)
	for _, key := range multiLimitKeys {
		if v, ok := attr(node, key); ok {
			if n, ok := positive(v); ok {
				return n, true
			}
		}
	}
	for _, a := range node.Attr {
		if n, ok := jsonLimit(a.Val); ok {
			return n, true
		}
	}
	content := NormalizeText(container.Text())
	for _, p := range multiLimitPatterns {
		m := p.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		if n, ok := positive(m[1]); ok {
			return n, true
		}
	}
	return 0, false
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func jsonLimit(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "{") {
		return 0, false
	}
	doc, err := jsonquery.Parse(strings.NewReader(value))
	if err != nil {
		return 0, false
	}
	for _, key := range multiLimitKeys {
		n := doc.SelectElement(key)
		if n == nil {
			continue
		}
		if limit, ok := positive(fmt.Sprint(n.Value())); ok {
			return limit, true
		}
	}
	return 0, false
}

// positive parses s as a number and returns it as a positive int.
func positive(s string) (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 1 || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}
