package sink

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/harrison/filescan/internal/filelock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRecord(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{name: "ascii", path: "/data/a.txt", want: "/data/a.txt\n"},
		{name: "unicode", path: "/data/résumé/日本.txt", want: "/data/résumé/日本.txt\n"},
		{name: "spaces and commas", path: "/data/a b, c.txt", want: "/data/a b, c.txt\n"},
		{name: "empty", path: "", wantErr: true},
		{name: "invalid utf8", path: "/data/\xff\xfe.txt", wantErr: true},
		{name: "nul", path: "/data/a\x00b", wantErr: true},
		{name: "newline", path: "/data/a\nb", wantErr: true},
		{name: "carriage return", path: "/data/a\rb", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeRecord(tt.path)
			if tt.wantErr {
				var encErr *EncodingError
				require.ErrorAs(t, err, &encErr)
				assert.Equal(t, tt.path, encErr.Path)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestAppendRecordLeavesBufferOnError(t *testing.T) {
	buf := []byte("/ok\n")
	buf, err := AppendRecord(buf, "/bad\x00")
	require.Error(t, err)
	assert.Equal(t, "/ok\n", string(buf))

	buf, err = AppendRecord(buf, "/next")
	require.NoError(t, err)
	assert.Equal(t, "/ok\n/next\n", string(buf))
}

func TestNewWritesHeader(t *testing.T) {
	var out bytes.Buffer
	s, err := New(&out, Options{})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.Equal(t, Header, out.String())
	assert.Equal(t, int64(len(Header)), s.Written())
}

func TestNewWritesBOM(t *testing.T) {
	var out bytes.Buffer
	s, err := New(&out, Options{BOM: true})
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(out.Bytes(), BOM))
	assert.Equal(t, string(BOM)+Header, out.String())
	require.NoError(t, s.Close())
}

func TestAppendBatchesAreContiguous(t *testing.T) {
	var out bytes.Buffer
	s, err := New(&out, Options{})
	require.NoError(t, err)

	const writers = 16
	const batches = 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for b := 0; b < batches; b++ {
				batch := fmt.Sprintf("/w%d/b%d/1\n/w%d/b%d/2\n/w%d/b%d/3\n", w, b, w, b, w, b)
				assert.NoError(t, s.Append([]byte(batch)))
			}
		}(w)
	}
	wg.Wait()
	require.NoError(t, s.Close())

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Equal(t, "File Path", lines[0])
	lines = lines[1:]
	require.Len(t, lines, writers*batches*3)

	// Each batch of three stays together and in order
	for i := 0; i < len(lines); i += 3 {
		base := strings.TrimSuffix(lines[i], "/1")
		assert.Equal(t, base+"/2", lines[i+1])
		assert.Equal(t, base+"/3", lines[i+2])
	}
}

type failingWriter struct {
	after int
	calls int
}

func (f *failingWriter) Write(p []byte) (int, error) {
	f.calls++
	if f.calls > f.after {
		return 0, errors.New("disk full")
	}
	return len(p), nil
}

func TestAppendErrorIsSticky(t *testing.T) {
	fw := &failingWriter{after: 1} // header succeeds
	s, err := New(fw, Options{})
	require.NoError(t, err)

	err = s.Append([]byte("/a\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	callsAfterFailure := fw.calls
	assert.Equal(t, err, s.Append([]byte("/b\n")))
	assert.Equal(t, callsAfterFailure, fw.calls, "no writes after a failure")

	assert.Equal(t, err, s.Close())
}

func TestAppendAfterClose(t *testing.T) {
	s, err := New(&bytes.Buffer{}, Options{})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Append([]byte("/a\n")), ErrClosed)
	assert.NoError(t, s.Append(nil), "empty append is always a no-op")
}

func TestHeaderWriteFailure(t *testing.T) {
	_, err := New(&failingWriter{after: 0}, Options{})
	require.Error(t, err)
}

func TestCreatePublishesOnClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file_list.csv")

	s, err := Create(path, Options{})
	require.NoError(t, err)
	require.NoError(t, s.Append([]byte("/x/a.txt\n")))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "output is not visible before Close")

	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "File Path\n/x/a.txt\n", string(data))

	_, statErr = os.Stat(path + ".lock")
	assert.True(t, os.IsNotExist(statErr), "lock file removed after Close")
}

func TestCreateRejectsLockedOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file_list.csv")

	first, err := Create(path, Options{})
	require.NoError(t, err)
	defer first.Close()

	_, err = Create(path, Options{})
	var openErr *OutputOpenError
	require.ErrorAs(t, err, &openErr)
	assert.ErrorIs(t, err, filelock.ErrLocked)
}

func TestCreateMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.csv")

	_, err := Create(path, Options{})
	var openErr *OutputOpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, path, openErr.Path)
}

func TestCreateDiscardsOnWriteFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	s, err := Create(path, Options{})
	require.NoError(t, err)

	// Simulate a mid-scan write failure
	s.mu.Lock()
	s.err = errors.New("write output: disk full")
	s.mu.Unlock()

	require.Error(t, s.Close())

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "failed output is not published")

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries, "temp and lock files are cleaned up")
}

func TestAbortKeepsExistingOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("File Path\n/old/a.txt\n"), 0644))

	s, err := Create(path, Options{})
	require.NoError(t, err)
	require.NoError(t, s.Append([]byte("/new/b.txt\n")))

	require.NoError(t, s.Abort())
	assert.NoError(t, s.Abort(), "second Abort is a no-op")
	assert.ErrorIs(t, s.Append([]byte("/x\n")), ErrClosed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "File Path\n/old/a.txt\n", string(data))

	entries, _ := os.ReadDir(dir)
	assert.Len(t, entries, 1, "temp and lock files are removed")

	// The lock is released, so a new scan can take the destination
	again, err := Create(path, Options{})
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

func TestAbortAfterCloseIsNoOp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	s, err := Create(path, Options{})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Abort())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Header, string(data))
}

func TestScratchPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	s, err := Create(path, Options{})
	require.NoError(t, err)

	scratch := s.ScratchPaths()
	require.Len(t, scratch, 2)
	assert.True(t, strings.HasPrefix(filepath.Base(scratch[0]), ".out.csv.tmp-"))
	assert.Equal(t, path+".lock", scratch[1])
	for _, p := range scratch {
		_, err := os.Stat(p)
		assert.NoError(t, err, "%s exists while the sink is open", p)
	}

	require.NoError(t, s.Close())
	for _, p := range scratch {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err), "%s removed after Close", p)
	}

	var buf bytes.Buffer
	w, err := New(&buf, Options{})
	require.NoError(t, err)
	assert.Nil(t, w.ScratchPaths())
}
