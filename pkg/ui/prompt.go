package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ptscraper/pkg/config"
	"ptscraper/pkg/daterange"
	"ptscraper/pkg/models"
)

// ErrQuit is returned when the user chooses to exit or input ends
var ErrQuit = errors.New("quit")

// Prompter asks the interactive questions of a scrape session
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter reads answers from in and writes prompts to out
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

func (p *Prompter) ask(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && strings.TrimSpace(line) != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(p.out)
			return "", ErrQuit
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// SelectCreators asks for a creator by number or vanity, or "all".
// Answering q returns ErrQuit.
func (p *Prompter) SelectCreators(creators []models.Creator) ([]models.Creator, error) {
	fmt.Fprintln(p.out, "\nSelect a creator to scrape:")
	fmt.Fprintf(p.out, "  - Enter a number (1-%d) or a creator's vanity name\n", len(creators))
	fmt.Fprintln(p.out, "  - Enter 'all' to scrape all creators")
	fmt.Fprintln(p.out, "  - Enter 'q' to quit")

	for {
		choice, err := p.ask("\nYour choice: ")
		if err != nil {
			return nil, err
		}
		choice = strings.ToLower(choice)

		switch choice {
		case "q", "quit", "exit":
			return nil, ErrQuit
		case "all":
			return creators, nil
		case "":
			continue
		}

		if n, err := strconv.Atoi(choice); err == nil {
			if n >= 1 && n <= len(creators) {
				return []models.Creator{creators[n-1]}, nil
			}
			fmt.Fprintf(p.out, "Please enter a number between 1 and %d\n", len(creators))
			continue
		}

		vanity := strings.TrimPrefix(choice, "@")
		for _, c := range creators {
			if strings.EqualFold(c.Vanity, vanity) {
				return []models.Creator{c}, nil
			}
		}
		fmt.Fprintln(p.out, "Invalid input. Please enter a number, a vanity name, 'all', or 'q'")
	}
}

// AskDateRange asks for an optional date range. With the "ask" policy the
// user is first asked whether to filter at all; "never" skips the questions.
// An unparseable date drops the filter with a warning.
func (p *Prompter) AskDateRange(policy string) (daterange.Range, error) {
	switch strings.ToLower(policy) {
	case config.DateFilterNever:
		return daterange.Range{}, nil
	case config.DateFilterAlways:
	default:
		ok, err := p.Confirm("\nApply date range filter? (y/n): ")
		if err != nil || !ok {
			return daterange.Range{}, err
		}
	}

	start, err := p.ask("Start date (YYYY-MM-DD) or press Enter to skip: ")
	if err != nil {
		return daterange.Range{}, err
	}
	end, err := p.ask("End date (YYYY-MM-DD) or press Enter to skip: ")
	if err != nil {
		return daterange.Range{}, err
	}

	rng, swapped, err := daterange.ParseRange(start, end)
	if err != nil {
		fmt.Fprintln(p.out, Yellow("Warning: "+err.Error()))
		fmt.Fprintln(p.out, "Proceeding without date filter...")
		return daterange.Range{}, nil
	}
	if swapped {
		fmt.Fprintln(p.out, Yellow("Warning: Start date is after end date. Swapping..."))
	}
	if !rng.IsZero() {
		fmt.Fprintf(p.out, "\n%s Date filter: %s\n", Green("✓"), rng)
	}
	return rng, nil
}

// SelectFormat asks which output files to write
func (p *Prompter) SelectFormat() (string, error) {
	fmt.Fprintln(p.out, "\nSelect output format:")
	fmt.Fprintln(p.out, "  1. JSON only (with metadata)")
	fmt.Fprintln(p.out, "  2. TXT only (raw URLs)")
	fmt.Fprintln(p.out, "  3. Both JSON and TXT")

	for {
		choice, err := p.ask("\nYour choice (1-3): ")
		if err != nil {
			return "", err
		}
		switch choice {
		case "1":
			return config.FormatJSON, nil
		case "2":
			return config.FormatTXT, nil
		case "3":
			return config.FormatBoth, nil
		}
		fmt.Fprintln(p.out, "Invalid input. Please enter 1, 2, or 3")
	}
}

// AskDedupe asks whether the TXT export should drop repeated URLs
func (p *Prompter) AskDedupe() (bool, error) {
	return p.Confirm("\nDeduplicate URLs in raw TXT export? (y/n): ")
}

// Confirm asks a yes/no question; anything but y or yes is no
func (p *Prompter) Confirm(prompt string) (bool, error) {
	answer, err := p.ask(prompt)
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

// FormatSummary describes the chosen output for the confirmation line
func FormatSummary(out config.OutputConfig) string {
	var parts []string
	if out.WantJSON() {
		parts = append(parts, "JSON")
	}
	if out.WantTXT() {
		if out.DedupeRawURLs {
			parts = append(parts, "TXT (deduplicated)")
		} else {
			parts = append(parts, "TXT (with duplicates)")
		}
	}
	return strings.Join(parts, " + ")
}
