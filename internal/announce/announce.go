// Package announce turns newly observed recognitions into spoken (or logged)
// greetings. Phrases are picked by confidence tier from the configured
// templates, with "{name}" replaced by the title-cased identity.
package announce

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strings"

	"github.com/kozaktomas/face-console/internal/appliance"
	"github.com/kozaktomas/face-console/internal/config"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Announcer delivers the one-shot notification for a new recognition.
type Announcer interface {
	Announce(ctx context.Context, rec appliance.Recognition) error
}

// Phraser renders announcement text from confidence tiers.
type Phraser struct {
	tiers []config.AnnounceTier
}

// NewPhraser creates a phraser. Tiers are ordered by descending minimum confidence.
func NewPhraser(tiers []config.AnnounceTier) *Phraser {
	sorted := make([]config.AnnounceTier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinConfidence > sorted[j].MinConfidence
	})
	return &Phraser{tiers: sorted}
}

// Phrase returns the text to announce for rec.
func (p *Phraser) Phrase(rec appliance.Recognition) string {
	name := displayName(rec.Identity)
	for _, tier := range p.tiers {
		if float64(rec.Confidence) >= tier.MinConfidence {
			return strings.ReplaceAll(tier.Phrase, "{name}", name)
		}
	}
	return "Recognized " + name
}

// displayName title-cases each word of the identity ("jane doe" -> "Jane Doe")
// without lowering the rest of the word, so "McArthur" stays intact.
func displayName(identity string) string {
	return cases.Title(language.Und, cases.NoLower).String(strings.TrimSpace(identity))
}

// LogAnnouncer writes the phrase to the structured log.
type LogAnnouncer struct {
	logger  *slog.Logger
	phraser *Phraser
}

// NewLogAnnouncer creates an announcer that only logs.
func NewLogAnnouncer(logger *slog.Logger, phraser *Phraser) *LogAnnouncer {
	return &LogAnnouncer{logger: logger, phraser: phraser}
}

func (a *LogAnnouncer) Announce(ctx context.Context, rec appliance.Recognition) error {
	a.logger.InfoContext(ctx, "announcing recognition",
		"identity", rec.Identity,
		"confidence", float64(rec.Confidence),
		"phrase", a.phraser.Phrase(rec))
	return nil
}

// runFunc executes an external command; replaced in tests.
type runFunc func(ctx context.Context, name string, args ...string) error

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// CommandAnnouncer speaks the phrase through an external text-to-speech
// command such as "espeak -s 150". The phrase is passed as the last argument.
type CommandAnnouncer struct {
	argv    []string
	phraser *Phraser
	run     runFunc
}

// NewCommandAnnouncer parses command into argv. An empty command is an error.
func NewCommandAnnouncer(command string, phraser *Phraser) (*CommandAnnouncer, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, errors.New("announce command is empty")
	}
	return &CommandAnnouncer{argv: argv, phraser: phraser, run: runCommand}, nil
}

func (a *CommandAnnouncer) Announce(ctx context.Context, rec appliance.Recognition) error {
	args := append(append([]string{}, a.argv[1:]...), a.phraser.Phrase(rec))
	if err := a.run(ctx, a.argv[0], args...); err != nil {
		return fmt.Errorf("speaking announcement: %w", err)
	}
	return nil
}

// Multi fans an announcement out to every announcer and joins their errors.
type Multi []Announcer

func (m Multi) Announce(ctx context.Context, rec appliance.Recognition) error {
	var errs []error
	for _, a := range m {
		if err := a.Announce(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// New builds the announcer described by cfg: always a log announcer, plus a
// speech command when one is configured.
func New(cfg config.AnnounceConfig, logger *slog.Logger) (Announcer, error) {
	phraser := NewPhraser(cfg.Tiers)
	logAnnouncer := NewLogAnnouncer(logger, phraser)
	if cfg.Command == "" {
		return logAnnouncer, nil
	}
	speech, err := NewCommandAnnouncer(cfg.Command, phraser)
	if err != nil {
		return nil, err
	}
	return Multi{logAnnouncer, speech}, nil
}
