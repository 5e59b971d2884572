package iteminfo

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var itemPattern = regexp.MustCompile(`\[(\d+)\]\s*=\s*\{[^}]*identifiedDisplayName\s*=\s*"([^"]+)"`)

// Item is the exported view of one table entry.
type Item struct {
	Name string `json:"name"`
}

// Convert maps item ids to their identified display names. Entries whose
// name appears after a nested table are skipped; a repeated id keeps the
// last name.
func Convert(content string) map[string]Item {
	items := make(map[string]Item)
	for _, m := range itemPattern.FindAllStringSubmatch(content, -1) {
		items[m[1]] = Item{Name: m[2]}
	}
	return items
}

// ConvertFile reads input and writes the id to name map as indented JSON.
func ConvertFile(input, output string) (int, error) {
	data, err := os.ReadFile(input)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", input, err)
	}
	items := Convert(string(data))
	encoded, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode items: %w", err)
	}
	if err := writeAtomic(output, append(encoded, '\n')); err != nil {
		return 0, err
	}
	return len(items), nil
}

// Match is an item found by Find.
type Match struct {
	ID   string
	Name string
}

// Find returns items whose id equals query or whose name contains it,
// ignoring case, ordered by numeric id.
func Find(items map[string]Item, query string) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	var out []Match
	for id, item := range items {
		if id == query || strings.Contains(strings.ToLower(item.Name), query) {
			out = append(out, Match{ID: id, Name: item.Name})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.Atoi(out[i].ID)
		b, _ := strconv.Atoi(out[j].ID)
		return a < b
	})
	return out
}
