package theme

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"reflect"
	"strings"

	"github.com/example/cursive/internal/ink"
)

// Parse reads "Key: #RRGGBB" lines over the default theme. Unknown keys are
// ignored so older binaries can read newer themes.
func Parse(r io.Reader) (*Theme, error) {
	t := Default()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if err := Set(t, strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return nil, err
		}
	}
	return t, scanner.Err()
}

var rgbaType = reflect.TypeOf(color.RGBA{})

// Set assigns a field by case-insensitive name. Colors may be hex or SVG
// color names.
func Set(t *Theme, key, value string) error {
	if strings.EqualFold(key, "Name") {
		t.Name = value
		return nil
	}
	v := reflect.ValueOf(t).Elem()
	f := v.FieldByNameFunc(func(n string) bool { return strings.EqualFold(n, key) })
	if !f.IsValid() || f.Type() != rgbaType {
		return nil
	}
	c, err := ink.ParseColor(value)
	if err != nil {
		return fmt.Errorf("invalid color for key %s: %w", key, err)
	}
	f.Set(reflect.ValueOf(c))
	return nil
}

// Fields returns every color field name with its value formatted as hex,
// in declaration order.
func Fields(t *Theme) [][2]string {
	var out [][2]string
	v := reflect.ValueOf(t).Elem()
	for i := 0; i < v.NumField(); i++ {
		if v.Field(i).Type() != rgbaType {
			continue
		}
		out = append(out, [2]string{v.Type().Field(i).Name, ink.FormatColor(v.Field(i).Interface().(color.RGBA))})
	}
	return out
}
