// Command solitaire encrypts and decrypts text with a deck file.
//
//	solitaire encrypt -deck key.txt "attack at dawn"
//	solitaire decrypt -deck key.txt < ciphertext.txt
//	solitaire keystream -deck key.yaml -n 20
//	solitaire newdeck -format yaml > key.yaml
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"

	"solitaire-go/internal/cipher/solitaire"

	"k8s.io/klog/v2"
)

const usage = `usage: solitaire <encrypt|decrypt|keystream|newdeck> [flags] [text...]`

func main() {
	defer klog.Flush()
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "solitaire:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	cmd := args[0]
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	klog.InitFlags(fs)
	deckPath := fs.String("deck", "", "Deck file (whitespace separated cards, or .yaml)")
	n := fs.Int("n", 10, "Number of keys for keystream")
	seed := fs.Int64("seed", 0, "Seed for newdeck (0 uses crypto/rand)")
	format := fs.String("format", "text", "Output format for newdeck: text or yaml")
	name := fs.String("name", "", "Key name written by newdeck -format yaml")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	if cmd == "newdeck" {
		return newDeck(stdout, *seed, *format, *name)
	}

	if *deckPath == "" {
		return errors.New("-deck is required")
	}
	deck, err := loadDeck(*deckPath)
	if err != nil {
		return fmt.Errorf("load deck %s: %w", *deckPath, err)
	}
	klog.V(1).Infof("Loaded deck from %s: %s", *deckPath, deck)

	switch cmd {
	case "encrypt", "decrypt":
		text, err := inputText(fs.Args(), stdin)
		if err != nil {
			return err
		}
		klog.V(1).Infof("%s: %d letters", cmd, len(solitaire.Letters(text)))
		var out string
		if cmd == "encrypt" {
			out, err = solitaire.Encrypt(deck, text)
		} else {
			out, err = solitaire.Decrypt(deck, text)
		}
		if err != nil {
			return err
		}
		klog.V(2).Infof("Deck after %s: %s", cmd, deck)
		_, err = fmt.Fprintln(stdout, out)
		return err
	case "keystream":
		keys, err := deck.Keystream(*n)
		if err != nil {
			return err
		}
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprint(k)
		}
		_, err = fmt.Fprintln(stdout, strings.Join(parts, " "))
		return err
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

// inputText joins the positional args, or reads stdin when there are none.
func inputText(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(b), nil
}

func newDeck(stdout io.Writer, seed int64, format, name string) error {
	var src solitaire.Source = &solitaire.CryptoSource{}
	if seed != 0 {
		src = rand.New(rand.NewSource(seed))
	}
	d := solitaire.NewShuffledDeck(src)
	switch format {
	case "text":
		_, err := fmt.Fprintln(stdout, strings.ReplaceAll(d.String(), ",", " "))
		return err
	case "yaml":
		b, err := marshalYAMLDeck(name, d)
		if err != nil {
			return err
		}
		_, err = stdout.Write(b)
		return err
	}
	return fmt.Errorf("unknown format %q", format)
}
