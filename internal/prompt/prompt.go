package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrInvalidChoice indicates an answer outside the offered options.
var ErrInvalidChoice = errors.New("invalid choice")

// Prompter asks questions on out and reads one line per answer from in.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func New(in io.Reader, out io.Writer) *Prompter {
	br, ok := in.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(in)
	}
	return &Prompter{in: br, out: out}
}

// Line prints question and returns the trimmed answer. io.EOF is returned
// only when the input ends before any text is read.
func (p *Prompter) Line(question string) (string, error) {
	if question != "" {
		fmt.Fprint(p.out, question)
	}
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a yes/no question. Anything but y or yes is a no.
func (p *Prompter) Confirm(question string) (bool, error) {
	answer, err := p.Line(question + " (y/N): ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Choice reads an integer in [1, max].
func (p *Prompter) Choice(question string, max int) (int, error) {
	answer, err := p.Line(question)
	if err != nil {
		return 0, err
	}
	return ParseChoice(answer, max)
}

// ParseChoice parses answer as an option number in [1, max].
func ParseChoice(answer string, max int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil || n < 1 || n > max {
		return 0, fmt.Errorf("%w %q (expected 1-%d)", ErrInvalidChoice, answer, max)
	}
	return n, nil
}
