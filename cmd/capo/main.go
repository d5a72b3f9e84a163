// Command capo is the CLI tool for transposing MusicXML scores.
// It rewrites note pitches, key signatures and chord symbols by a semitone
// interval, or fans a score out into all twelve keys.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/zeebo/blake3"

	"github.com/tonerow/capo/core/allkeys"
	"github.com/tonerow/capo/core/pitch"
	"github.com/tonerow/capo/core/rewrite"
	"github.com/tonerow/capo/core/score"
	"github.com/tonerow/capo/internal/logging"
	"github.com/tonerow/capo/internal/mxl"
)

const version = "0.2.0"

// CLI defines the command-line interface for capo.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)" env:"CAPO_LOG_LEVEL" default:"info"`
	LogFormat string `name:"log-format" help:"Log format (text, json)" env:"CAPO_LOG_FORMAT" default:"text"`

	Transpose TransposeCmd `cmd:"" help:"Transpose a score by a signed semitone interval"`
	AllKeys   AllKeysCmd   `cmd:"" name:"all-keys" help:"Render a score in all twelve keys"`
	Inspect   InspectCmd   `cmd:"" help:"Report score structure and detected key"`
	Version   VersionCmd   `cmd:"" help:"Print version information"`
}

// TransposeCmd transposes a single score by one interval.
type TransposeCmd struct {
	Path      string `arg:"" help:"Score file (.musicxml, .xml, or .mxl)" type:"existingfile"`
	Semitones string `short:"s" default:"0" help:"Signed semitone interval, e.g. -3 or +7"`
	Output    string `short:"o" help:"Output file (default stdout)" type:"path"`
}

func (c *TransposeCmd) Run() error {
	// Interval validation happens before any document parsing.
	semitones, err := pitch.ParseSemitones(c.Semitones)
	if err != nil {
		return err
	}

	doc, err := loadScore(c.Path)
	if err != nil {
		return err
	}

	out, err := rewrite.Transpose(doc, semitones)
	if err != nil {
		return err
	}

	if c.Output == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	if err := os.WriteFile(c.Output, out, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", c.Output, err)
	}
	logging.Info("wrote transposed score", "path", c.Output, "semitones", semitones)
	return nil
}

// AllKeysCmd renders a score in all twelve keys, either as twelve documents
// plus a manifest or as one combined score.
type AllKeysCmd struct {
	Path     string `arg:"" help:"Score file (.musicxml, .xml, or .mxl)" type:"existingfile"`
	Order    string `help:"Key order" enum:"chromatic,fourths" default:"chromatic"`
	Combined bool   `help:"Emit one combined score instead of twelve documents"`
	OutDir   string `name:"out-dir" short:"d" default:"." help:"Directory for generated documents" type:"path"`
	Output   string `short:"o" help:"Output file for --combined (default stdout)" type:"path"`
}

// manifest records one all-keys batch for downstream tooling.
type manifest struct {
	BatchID string         `json:"batch_id"`
	Source  string         `json:"source"`
	Order   string         `json:"order"`
	Files   []manifestFile `json:"files"`
}

type manifestFile struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	Semitones int    `json:"semitones"`
	BLAKE3    string `json:"blake3"`
}

func (c *AllKeysCmd) Run() error {
	order, err := allkeys.ParseOrder(c.Order)
	if err != nil {
		return err
	}

	doc, err := loadScore(c.Path)
	if err != nil {
		return err
	}

	if c.Combined {
		out, err := allkeys.GenerateCombined(doc, order)
		if err != nil {
			return err
		}
		if c.Output == "" {
			_, err = os.Stdout.Write(out)
			return err
		}
		if err := os.WriteFile(c.Output, out, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", c.Output, err)
		}
		logging.Info("wrote combined score", "path", c.Output, "order", order.String())
		return nil
	}

	batch, err := allkeys.Generate(doc, order)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(c.OutDir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", c.OutDir, err)
	}

	m := manifest{
		BatchID: batch.ID,
		Source:  c.Path,
		Order:   order.String(),
	}
	for i, r := range batch.Renderings {
		name := fmt.Sprintf("%02d-%s.xml", i+1, slug(r.Label))
		path := filepath.Join(c.OutDir, name)
		if err := os.WriteFile(path, r.Document, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		sum := blake3.Sum256(r.Document)
		m.Files = append(m.Files, manifestFile{
			Name:      name,
			Label:     r.Label,
			Semitones: r.Semitones,
			BLAKE3:    hex.EncodeToString(sum[:]),
		})
		logging.Debug("wrote rendering", "path", path, "label", r.Label)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	manifestPath := filepath.Join(c.OutDir, "manifest.json")
	if err := os.WriteFile(manifestPath, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", manifestPath, err)
	}

	logging.Info("wrote all-keys batch",
		"batch_id", batch.ID,
		"dir", c.OutDir,
		"order", order.String(),
		"documents", len(batch.Renderings))
	return nil
}

// InspectCmd reports score structure without modifying anything.
type InspectCmd struct {
	Path string `arg:"" help:"Score file (.musicxml, .xml, or .mxl)" type:"existingfile"`
}

func (c *InspectCmd) Run() error {
	doc, err := loadScore(c.Path)
	if err != nil {
		return err
	}

	split, err := score.Split(doc)
	if err != nil {
		return err
	}
	sig, found := score.FindKey(doc)

	keyNote := ""
	if !found {
		keyNote = " (assumed)"
	}
	fmt.Printf("key: %s%s\n", sig.Name(), keyNote)
	fmt.Printf("parts: %d\n", len(split.Parts))
	for _, p := range split.Parts {
		fmt.Printf("  %s: %d measures\n", p.ID, len(p.Measures))
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println("capo " + version)
	return nil
}

// loadScore reads a score file, transparently unpacking .mxl containers.
func loadScore(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if mxl.IsContainer(data) {
		logging.Debug("extracting compressed container", "path", path)
		return mxl.Extract(data)
	}
	return data, nil
}

// slug converts a key label to a file-name-safe form, e.g. "F# major" to
// "f-sharp-major".
func slug(label string) string {
	s := strings.ToLower(label)
	s = strings.ReplaceAll(s, "#", "-sharp")
	s = strings.ReplaceAll(s, " ", "-")
	return s
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("capo"),
		kong.Description("capo - MusicXML transposition toolkit"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	logging.InitLogger(logging.ParseLevel(CLI.LogLevel), logging.ParseFormat(CLI.LogFormat))
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
