// main.go - Blockcrypt file encryption tool.
// Copyright (C) 2025  David Stainton.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/carlmjohnson/versioninfo"
	"github.com/charmbracelet/fang"
	"github.com/katzenpost/hpqc/rand"
	"github.com/katzenpost/hpqc/util"
	"github.com/spf13/cobra"

	"github.com/katzenpost/cryptobase/blockcipher"
	"github.com/katzenpost/cryptobase/blockfile"
	"github.com/katzenpost/cryptobase/blockmode"
	"github.com/katzenpost/cryptobase/config"
	"github.com/katzenpost/cryptobase/counter"
	"github.com/katzenpost/cryptobase/log"
)

const (
	// ctrValueLength is the width in bytes of the counter value field, the
	// remainder of the counter block being the per-file random nonce.
	ctrValueLength = 4

	// variableKeyLength is the generated key width for schemes that accept
	// keys of any length.
	variableKeyLength = 32
)

type flags struct {
	ConfigFile  string
	KeyFile     string
	In          string
	Out         string
	Scheme      string
	Mode        string
	SegmentSize int
}

func newRootCommand() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "blockcrypt",
		Short: "Encrypt and decrypt files with a block cipher mode of operation",
		Long: `Blockcrypt encrypts and decrypts files using one of several block cipher
schemes combined with a classical mode of operation (ECB, CBC, CFB, OFB,
PGP, CTR).  The scheme and mode are selected in a TOML configuration file;
each container records its own parameters in a self describing header, so
decryption only needs the key.`,
		Example: `  # Generate a key for the configured scheme
  blockcrypt genkey -k secret.key

  # Generate a key for an explicitly selected scheme
  blockcrypt genkey --scheme aes128 --out secret.key

  # Encrypt and decrypt a file
  blockcrypt encrypt -k secret.key -i plain.txt -o cipher.kpbc
  blockcrypt decrypt -k secret.key -i cipher.kpbc -o plain.txt

  # Encrypt with the scheme and mode given on the command line
  blockcrypt encrypt --scheme blowfish --mode cfb --segment-size 32 \
      -k secret.key -i plain.txt -o cipher.kpbc

  # Inspect a container header
  blockcrypt info -i cipher.kpbc`,
	}

	cmd.PersistentFlags().StringVarP(&f.ConfigFile, "config", "f", "",
		"path to the blockcrypt configuration file (TOML format)")
	cmd.PersistentFlags().StringVarP(&f.KeyFile, "key", "k", "",
		"path to the hex encoded key file")
	cmd.PersistentFlags().StringVarP(&f.In, "in", "i", "",
		"input file")
	cmd.PersistentFlags().StringVarP(&f.Out, "out", "o", "",
		"output file")
	cmd.PersistentFlags().StringVarP(&f.Scheme, "scheme", "s", "",
		"block cipher scheme, overrides the configuration file")
	cmd.PersistentFlags().StringVarP(&f.Mode, "mode", "m", "",
		"mode of operation, overrides the configuration file")
	cmd.PersistentFlags().IntVar(&f.SegmentSize, "segment-size", 0,
		"CFB feedback granularity in bits, overrides the configuration file")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "genkey",
			Short: "Generate a key for the configured scheme",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runGenKey(&f)
			},
		},
		&cobra.Command{
			Use:   "encrypt",
			Short: "Encrypt a file",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCrypt(&f, true)
			},
		},
		&cobra.Command{
			Use:   "decrypt",
			Short: "Decrypt a file",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCrypt(&f, false)
			},
		},
		&cobra.Command{
			Use:   "info",
			Short: "Print a container header",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runInfo(&f)
			},
		},
	)
	return cmd
}

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCommand(),
		fang.WithVersion(versioninfo.Short()),
	); err != nil {
		os.Exit(1)
	}
}

func loadConfig(f *flags) (*config.Config, error) {
	cfg := new(config.Config)
	if f.ConfigFile != "" {
		var err error
		cfg, err = config.LoadFile(f.ConfigFile)
		if err != nil {
			return nil, err
		}
	}
	if err := applyOverrides(cfg, f); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyOverrides layers the command line selection over the configuration:
// a flag wins over the configuration file, the file over the defaults.
func applyOverrides(cfg *config.Config, f *flags) error {
	if err := cfg.FixupAndValidate(); err != nil {
		return err
	}
	if f.Scheme != "" {
		cfg.Crypt.Scheme = f.Scheme
	}
	if f.Mode != "" {
		cfg.Crypt.Mode = f.Mode
	}
	if f.SegmentSize != 0 {
		cfg.Crypt.SegmentSize = f.SegmentSize
	}
	return cfg.FixupAndValidate()
}

func newLogger(cfg *config.Config) (*log.Backend, error) {
	return log.New(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.Disable)
}

func loadKey(path string, s blockcipher.Scheme) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("no key file specified")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	key, err := hex.DecodeString(string(bytes.TrimSpace(b)))
	if err != nil {
		return nil, fmt.Errorf("malformed key file '%v': %v", path, err)
	}
	if ks := s.KeySize(); ks != 0 && len(key) != ks {
		return nil, fmt.Errorf("%s key must be %d bytes long, not %d", s.Name(), ks, len(key))
	}
	return key, nil
}

// genKeyLength returns the key width genkey draws for a scheme.
func genKeyLength(s blockcipher.Scheme) int {
	if ks := s.KeySize(); ks != 0 {
		return ks
	}
	return variableKeyLength
}

func runGenKey(f *flags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	backend, err := newLogger(cfg)
	if err != nil {
		return err
	}
	logger := backend.GetLogger("blockcrypt")

	s, err := blockcipher.ByName(cfg.Crypt.Scheme)
	if err != nil {
		return err
	}
	ks := genKeyLength(s)

	key := make([]byte, ks)
	defer util.ExplicitBzero(key)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return err
	}

	if f.Out == "" {
		f.Out = f.KeyFile
	}
	if f.Out == "" {
		return fmt.Errorf("no output file specified")
	}
	if err := os.WriteFile(f.Out, []byte(hex.EncodeToString(key)+"\n"), 0600); err != nil {
		return err
	}
	logger.Noticef("wrote %d byte %s key to %s", ks, s.Name(), f.Out)
	return nil
}

// newHeader fills in a container header for the configured scheme and mode,
// drawing the IV or nonce from the system entropy source.
func newHeader(cCfg *config.Crypt, payloadLen uint64) (*blockfile.Header, error) {
	s, err := blockcipher.ByName(cCfg.Scheme)
	if err != nil {
		return nil, err
	}
	m, err := blockmode.FromString(cCfg.Mode)
	if err != nil {
		return nil, err
	}

	h := &blockfile.Header{
		Scheme:     cCfg.Scheme,
		Mode:       cCfg.Mode,
		PayloadLen: payloadLen,
	}
	switch m {
	case blockmode.ECB:
	case blockmode.CTR:
		h.Nonce = make([]byte, s.BlockSize()-ctrValueLength)
		if _, err := io.ReadFull(rand.Reader, h.Nonce); err != nil {
			return nil, err
		}
	default:
		h.IV = make([]byte, s.BlockSize())
		if _, err := io.ReadFull(rand.Reader, h.IV); err != nil {
			return nil, err
		}
		if m == blockmode.CFB {
			h.SegmentSize = cCfg.SegmentSize
		}
	}
	return h, nil
}

// newContext builds a mode context from a container header and a key.
func newContext(h *blockfile.Header, key []byte) (*blockmode.Context, error) {
	s, err := blockcipher.ByName(h.Scheme)
	if err != nil {
		return nil, err
	}
	m, err := blockmode.FromString(h.Mode)
	if err != nil {
		return nil, err
	}

	opts := &blockmode.Options{IV: h.IV, SegmentSize: h.SegmentSize}
	if m == blockmode.CTR {
		initial := make([]byte, s.BlockSize()-len(h.Nonce))
		ctr, err := counter.NewBigEndian(h.Nonce, nil, initial, false, false)
		if err != nil {
			return nil, err
		}
		opts.Counter = ctr
	}
	return blockmode.New(s, key, m, opts)
}

// granularity returns the input alignment a header's mode requires.
func granularity(h *blockfile.Header, c *blockmode.Context) int {
	switch c.Mode() {
	case blockmode.ECB, blockmode.CBC, blockmode.OFB:
		return c.BlockSize()
	case blockmode.CFB:
		return h.SegmentSize / 8
	default:
		return 1
	}
}

func runCrypt(f *flags, encrypt bool) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	backend, err := newLogger(cfg)
	if err != nil {
		return err
	}
	logger := backend.GetLogger("blockcrypt")

	if f.In == "" || f.Out == "" {
		return fmt.Errorf("both input and output files must be specified")
	}
	in, err := os.ReadFile(f.In)
	if err != nil {
		return err
	}

	if encrypt {
		h, err := newHeader(cfg.Crypt, uint64(len(in)))
		if err != nil {
			return err
		}
		s, _ := blockcipher.ByName(h.Scheme)
		key, err := loadKey(f.KeyFile, s)
		if err != nil {
			return err
		}
		defer util.ExplicitBzero(key)

		c, err := newContext(h, key)
		if err != nil {
			return err
		}
		defer c.Destroy()

		// Zero pad up to the mode's granularity, the header's payload
		// length strips it on the way back.
		if g := granularity(h, c); len(in)%g != 0 {
			in = append(in, make([]byte, g-len(in)%g)...)
		}
		ct, err := c.Encrypt(in)
		if err != nil {
			return err
		}

		out, err := os.OpenFile(f.Out, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
		if err != nil {
			return err
		}
		defer out.Close()
		if err := blockfile.WriteHeader(out, h); err != nil {
			return err
		}
		if _, err := out.Write(ct); err != nil {
			return err
		}
		logger.Noticef("encrypted %s (%d bytes) with %s/%s", f.In, h.PayloadLen, h.Scheme, h.Mode)
		return nil
	}

	r := bytes.NewReader(in)
	h, err := blockfile.ReadHeader(r)
	if err != nil {
		return err
	}
	s, _ := blockcipher.ByName(h.Scheme)
	key, err := loadKey(f.KeyFile, s)
	if err != nil {
		return err
	}
	defer util.ExplicitBzero(key)

	c, err := newContext(h, key)
	if err != nil {
		return err
	}
	defer c.Destroy()

	ct, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	pt, err := c.Decrypt(ct)
	if err != nil {
		return err
	}
	if uint64(len(pt)) < h.PayloadLen {
		return fmt.Errorf("container truncated: %d bytes of %d byte payload", len(pt), h.PayloadLen)
	}
	if err := os.WriteFile(f.Out, pt[:h.PayloadLen], 0600); err != nil {
		return err
	}
	logger.Noticef("decrypted %s (%d bytes) with %s/%s", f.In, h.PayloadLen, h.Scheme, h.Mode)
	return nil
}

func runInfo(f *flags) error {
	if f.In == "" {
		return fmt.Errorf("no input file specified")
	}
	in, err := os.Open(f.In)
	if err != nil {
		return err
	}
	defer in.Close()

	h, err := blockfile.ReadHeader(in)
	if err != nil {
		return err
	}

	fmt.Printf("Scheme:      %s\n", h.Scheme)
	fmt.Printf("Mode:        %s\n", h.Mode)
	if h.SegmentSize != 0 {
		fmt.Printf("SegmentSize: %d bits\n", h.SegmentSize)
	}
	if len(h.IV) != 0 {
		fmt.Printf("IV:          %s\n", hex.EncodeToString(h.IV))
	}
	if len(h.Nonce) != 0 {
		fmt.Printf("Nonce:       %s\n", hex.EncodeToString(h.Nonce))
	}
	fmt.Printf("PayloadLen:  %d\n", h.PayloadLen)
	return nil
}
