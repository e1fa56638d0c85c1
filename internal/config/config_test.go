package config

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	f, err := ioutil.TempFile("", "relayd-config-*.yaml")
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	t.Cleanup(func() { os.Remove(f.Name()) })
	return f.Name()
}

func TestLoadValid(t *testing.T) {
	path := writeTempConfig(t, `
listen_addrs:
  - "0.0.0.0:6667"
server_name: irc.example.org
server_info: Example relay
version: relayd-0.1
created_date: "2026-01-01"
motd_path: ""
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"0.0.0.0:6667"}, c.ListenAddrs)
	assert.Equal(t, "irc.example.org", c.ServerName)
	assert.NotZero(t, c.PingInterval)
}

func TestLoadMissingRequiredField(t *testing.T) {
	path := writeTempConfig(t, `
listen_addrs:
  - "0.0.0.0:6667"
server_name: irc.example.org
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/relayd.yaml")
	assert.Error(t, err)
}
