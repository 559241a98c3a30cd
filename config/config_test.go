// config_test.go - Configuration tests.
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

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	require := require.New(t)

	cfg, err := Load([]byte(""))
	require.NoError(err, "empty config rejected")
	require.Equal("NOTICE", cfg.Logging.Level)
	require.Equal("aes256", cfg.Crypt.Scheme)
	require.Equal("ctr", cfg.Crypt.Mode)
}

func TestFullConfig(t *testing.T) {
	require := require.New(t)

	const raw = `
[Logging]
Disable = false
File = "/var/log/blockcrypt.log"
Level = "debug"

[Crypt]
Scheme = "blowfish"
Mode = "cfb"
SegmentSize = 32
`
	cfg, err := Load([]byte(raw))
	require.NoError(err)
	require.Equal("DEBUG", cfg.Logging.Level, "level not forced uppercase")
	require.Equal("/var/log/blockcrypt.log", cfg.Logging.File)
	require.Equal("blowfish", cfg.Crypt.Scheme)
	require.Equal("cfb", cfg.Crypt.Mode)
	require.Equal(32, cfg.Crypt.SegmentSize)
}

func TestInvalidConfigs(t *testing.T) {
	assert := assert.New(t)

	_, err := Load(nil)
	assert.Error(err, "nil buffer accepted")

	_, err = Load([]byte("[Logging]\nLevel = \"verbose\"\n"))
	assert.Error(err, "bogus log level accepted")

	_, err = Load([]byte("[Crypt]\nScheme = \"rot13\"\n"))
	assert.Error(err, "bogus scheme accepted")

	_, err = Load([]byte("[Crypt]\nMode = \"gcm\"\n"))
	assert.Error(err, "bogus mode accepted")

	_, err = Load([]byte("[Crypt]\nMode = \"cfb\"\nSegmentSize = 12\n"))
	assert.Error(err, "bogus segment size accepted")

	_, err = Load([]byte("[Crypt]\nScheme = \"des\"\nMode = \"cfb\"\nSegmentSize = 128\n"))
	assert.Error(err, "segment size beyond block size accepted")
}

func TestCFBSegmentDefault(t *testing.T) {
	require := require.New(t)

	cfg, err := Load([]byte("[Crypt]\nMode = \"cfb\"\n"))
	require.NoError(err)
	require.Equal(8, cfg.Crypt.SegmentSize)
}
