// Package iteminfo edits item description tables from the game client and
// extracts item names from them. Both are plain regex passes over the text;
// the table syntax is not parsed.
package iteminfo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// DefaultField is the block removed unless configured otherwise.
const DefaultField = "unidentifiedUFO"

// Pattern returns the expression matching `<field> = { ... },` and its line
// break. Nested braces are not supported.
func Pattern(field string) (*regexp.Regexp, error) {
	if field == "" {
		return nil, errors.New("field name is required")
	}
	return regexp.Compile(regexp.QuoteMeta(field) + ` = \{[^}]*\},\r?\n`)
}

// Strip removes every block of field from content and reports how many were removed.
func Strip(content, field string) (string, int, error) {
	re, err := Pattern(field)
	if err != nil {
		return "", 0, err
	}
	count := len(re.FindAllStringIndex(content, -1))
	if count == 0 {
		return content, 0, nil
	}
	return re.ReplaceAllLiteralString(content, ""), count, nil
}

// StripFile reads input, strips field and writes the result to output.
func StripFile(input, output, field string) (int, error) {
	data, err := os.ReadFile(input)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", input, err)
	}
	out, count, err := Strip(string(data), field)
	if err != nil {
		return 0, err
	}
	if err := writeAtomic(output, []byte(out)); err != nil {
		return 0, err
	}
	return count, nil
}

func writeAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure output directory: %w", err)
		}
	}

	tmpPath := fmt.Sprintf("%s.%d.tmp", path, time.Now().UnixNano())
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp output: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace output file: %w", err)
	}
	return nil
}
