package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// readLine returns one line without its line ending and reports whether
// more input may follow. A final line cut off by EOF is still returned;
// EOF with nothing read is an error.
func readLine(reader *bufio.Reader) (string, bool, error) {
	line, err := reader.ReadString('\n')
	switch {
	case err == nil:
		return strings.TrimRight(line, "\r\n"), true, nil
	case errors.Is(err, io.EOF) && line != "":
		return strings.TrimRight(line, "\r\n"), false, nil
	default:
		return "", false, err
	}
}

// GetSimpleText shows prompt followed by "> " and reads one trimmed line.
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprintf(w, "%s\n> ", prompt); err != nil {
		return "", err
	}
	line, _, err := readLine(reader)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword reads a password from the terminal without echo. Callers
// wipe the result when done.
func GetPassword(w io.Writer) ([]byte, error) {
	if _, err := fmt.Fprint(w, "Enter password: "); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	return pw, err
}

// GetMultiline reads a journal text: lines up to the first empty one or
// EOF, joined with "\n".
func GetMultiline(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprintf(w, "%s\n(press Enter on an empty line to finish)\n", prompt); err != nil {
		return "", err
	}

	var b strings.Builder
	for {
		line, more, _ := readLine(reader)
		if line == "" {
			break
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if !more {
			break
		}
	}
	return strings.TrimSpace(b.String()), nil
}
