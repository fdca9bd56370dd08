package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// readLine prints prompt and reads one trimmed line. A final line without a
// newline is still returned.
func readLine(r *bufio.Reader, w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", err
	}
	line, err := r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readField asks for a value showing the current one. An empty answer keeps
// the current value.
func readField(r *bufio.Reader, w io.Writer, label, current string) (string, error) {
	prompt := label + ": "
	if current != "" {
		prompt = fmt.Sprintf("%s [%s]: ", label, current)
	}
	v, err := readLine(r, w, prompt)
	if err != nil {
		return "", err
	}
	if v == "" {
		return current, nil
	}
	return v, nil
}

func readYesNo(r *bufio.Reader, w io.Writer, label string, current bool) (bool, error) {
	def := "n"
	if current {
		def = "s"
	}
	v, err := readField(r, w, label+" (s/n)", def)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(v) {
	case "s", "sim", "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
