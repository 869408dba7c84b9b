package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/dist-check/internal/service/agent"
	"github.com/oshokin/dist-check/internal/service/packager"
)

const (
	testVersion = "1.2.5"
	testToken   = "integration-token"
)

// publishInstallers packages fake installers for every provider and serves them over HTTP.
// Returns the base URL and the installer contents by file name.
func publishInstallers(t *testing.T) (string, map[string][]byte) {
	t.Helper()

	dir := t.TempDir()
	installers := map[string][]byte{
		"ballerina-linux-installer-x64-" + testVersion + ".deb":   []byte("deb-package"),
		"ballerina-linux-installer-x64-" + testVersion + ".rpm":   []byte("rpm-package"),
		"ballerina-macos-installer-x64-" + testVersion + ".pkg":   []byte("pkg-package"),
		"ballerina-windows-installer-x64-" + testVersion + ".msi": []byte("msi-package"),
	}

	for name, body := range installers {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), body, 0o600))
	}

	_, err := packager.Run(context.Background(), &packager.Options{Dir: dir, Version: testVersion})
	require.NoError(t, err)

	ts := httptest.NewServer(http.FileServer(http.Dir(dir)))
	t.Cleanup(ts.Close)

	return ts.URL, installers
}

// startAgent runs a dist-agent on a free loopback port until the test ends.
// Returns the address and the root staging directories are confined to.
func startAgent(t *testing.T, artifactsURL string) (string, string) {
	t.Helper()

	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	done := make(chan struct{})

	var runErr error

	go func() {
		defer close(done)

		runErr = agent.Run(ctx, &agent.Options{
			ListenAddress: "127.0.0.1:0",
			ArtifactsURL:  artifactsURL,
			ArtifactsRoot: root,
			Token:         testToken,
			Ready:         func(address string) { ready <- address },
		})
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})

	select {
	case address := <-ready:
		return address, root
	case <-done:
		t.Fatalf("agent exited early: %v", runErr)
	case <-time.After(5 * time.Second):
		t.Fatal("agent did not start")
	}

	return "", ""
}
