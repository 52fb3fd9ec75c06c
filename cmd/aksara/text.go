package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/aksara/builder/models"
	"github.com/Kush-Singh-26/aksara/internal/app"
)

// maxLine bounds a single stdin line.
const maxLine = 1 << 20

// eachInput calls fn with the joined arguments, or with every stdin line
// when there are none.
func eachInput(args []string, stdin io.Reader, fn func(string) error) error {
	if len(args) > 0 {
		return fn(strings.Join(args, " "))
	}
	sc := bufio.NewScanner(stdin)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	for sc.Scan() {
		if err := fn(sc.Text()); err != nil {
			return err
		}
	}
	return sc.Err()
}

// textFlags are shared by latin and pegon.
type textFlags struct {
	*app.Flags
	stats bool
}

func addTextFlags(fs *flag.FlagSet) *textFlags {
	f := &textFlags{Flags: app.AddFlags(fs)}
	fs.BoolVar(&f.stats, "stats", false, "Print engine counters when done")
	return f
}

func transliterate(f *textFlags, args []string, d models.Direction, stem bool, stdin io.Reader, stdout io.Writer) error {
	env, err := f.Open(afero.NewOsFs())
	if err != nil {
		return err
	}
	defer env.Close()

	err = eachInput(args, stdin, func(text string) error {
		out, err := env.Engine.Transliterate(text, env.Variant, d, stem)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, out)
		return err
	})
	if err == nil && f.stats {
		fmt.Fprint(stdout, env.Metrics.String())
	}
	return err
}

func runLatin(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("latin", flag.ContinueOnError)
	flags := addTextFlags(fs)
	stem := fs.Bool("stem", false, "Spell affixes separately from stems")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return transliterate(flags, fs.Args(), models.LatinToPegon, *stem, stdin, stdout)
}

func runPegon(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("pegon", flag.ContinueOnError)
	flags := addTextFlags(fs)
	standard := fs.Bool("standard", false, "Produce standard Latin spelling")
	if err := fs.Parse(args); err != nil {
		return err
	}
	d := models.PegonToLatin
	if *standard {
		d = models.PegonToStandard
	}
	return transliterate(flags, fs.Args(), d, false, stdin, stdout)
}

// runStem prints one line per word: the word, its root and its affixes.
func runStem(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("stem", flag.ContinueOnError)
	flags := addTextFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	env, err := flags.Open(afero.NewOsFs())
	if err != nil {
		return err
	}
	defer env.Close()

	err = eachInput(fs.Args(), stdin, func(line string) error {
		for _, word := range strings.Fields(line) {
			r, err := env.Engine.Stem(word, env.Variant)
			if err != nil {
				return err
			}
			affixes := "-"
			if len(r.AffixSequence) > 0 {
				affixes = strings.Join(r.AffixSequence, " ")
			}
			if _, err := fmt.Fprintf(stdout, "%s\t%s\t%s\n", word, r.BaseWord, affixes); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil && flags.stats {
		fmt.Fprint(stdout, env.Metrics.String())
	}
	return err
}
