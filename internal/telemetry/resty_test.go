package telemetry

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	lock     sync.Mutex
	messages map[string]string
}

func (m *memoryOutput) Write(id string, contents string) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.messages[id] = contents
}

func TestInstrumentResty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Grid", "wUctlAwardQueryPage_grdResult")
		w.Write([]byte("<table></table>"))
	}))

	tel := NewTestAPI()
	output := &memoryOutput{messages: map[string]string{}}
	client := resty.New()
	client.SetHeader("accept-language", "zh-TW")
	InstrumentResty(client, tel, output)

	_, err := client.R().Get(server.URL + "/list")
	require.NoError(t, err)
	require.Len(t, tel.Reports("debug", report_resty_request), 1)
	require.Len(t, tel.Reports("debug", report_resty_response), 1)
	require.Empty(t, tel.Reports("broken", ""))

	require.Len(t, output.messages, 1)
	message := output.messages["1"]
	require.Contains(t, message, "GET "+server.URL+"/list")
	require.Contains(t, message, "Accept-Language: zh-TW")
	require.Contains(t, message, "X-Grid: wUctlAwardQueryPage_grdResult")
	require.Contains(t, message, "<table></table>")

	server.Close()

	_, err = client.R().Get(server.URL)
	require.Error(t, err)
	require.Len(t, tel.Reports("broken", report_resty_response), 1)
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "resty")
	output, err := NewFilesystemOutput(dir, NewTestAPI())
	require.NoError(t, err)

	output.Write("7", "contents")
	written, err := os.ReadFile(filepath.Join(dir, "7.txt"))
	require.NoError(t, err)
	require.Equal(t, "contents", string(written))
}

func TestFilesystemOutputEmptyDir(t *testing.T) {
	require.PanicsWithValue(t, "expected message output directory to be non-empty", func() {
		NewFilesystemOutput("", NewTestAPI())
	})
}
