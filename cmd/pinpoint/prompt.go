package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samirrijal/pinpoint/internal/pkg/units"
)

// prompter asks for values the command line did not provide.
type prompter struct {
	sc  *bufio.Scanner
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{sc: bufio.NewScanner(in), out: out}
}

func (p *prompter) ask(label string) (string, error) {
	fmt.Fprint(p.out, label)
	if !p.sc.Scan() {
		if err := p.sc.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("no input for %q", strings.TrimSpace(label))
	}
	return strings.TrimSpace(p.sc.Text()), nil
}

func (p *prompter) askFloat(label string) (float64, error) {
	s, err := p.ask(label)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return f, nil
}

// fillStrings takes up to three values from given and prompts for the rest.
// label must contain one %d for the 1-based position.
func (p *prompter) fillStrings(given []string, label string) ([3]string, error) {
	var out [3]string
	if len(given) > 3 {
		return out, fmt.Errorf("expected 3 values, got %d", len(given))
	}
	copy(out[:], given)
	for k := len(given); k < 3; k++ {
		v, err := p.ask(fmt.Sprintf(label, k+1))
		if err != nil {
			return out, err
		}
		out[k] = v
	}
	return out, nil
}

func (p *prompter) fillDistances(given []float64, label string) ([3]float64, error) {
	var out [3]float64
	if len(given) > 3 {
		return out, fmt.Errorf("expected 3 distances, got %d", len(given))
	}
	copy(out[:], given)
	for k := len(given); k < 3; k++ {
		v, err := p.askFloat(fmt.Sprintf(label, k+1))
		if err != nil {
			return out, err
		}
		out[k] = v
	}
	return out, nil
}

// fillUnit prompts when unit is empty and asks again until the answer is a
// known unit. An empty answer means meters.
func (p *prompter) fillUnit(unit string) (string, error) {
	if unit != "" {
		return unit, nil
	}
	label := "Units? (" + strings.ReplaceAll(units.ValidUnitsString(), ", ", " / ") + "): "
	for {
		answer, err := p.ask(label)
		if err != nil {
			return "", err
		}
		u := units.Normalize(answer)
		if units.IsValid(u) {
			return u, nil
		}
		fmt.Fprintf(p.out, "unknown unit %q\n", answer)
	}
}
