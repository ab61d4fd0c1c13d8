package takeown

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/sys/unix"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func owner(t *testing.T, path string) (uid, gid int) {
	t.Helper()
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		t.Fatalf("lstat %s: %v", path, err)
	}
	return int(st.Uid), int(st.Gid)
}

func assertNotExist(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Lstat(path); !os.IsNotExist(err) {
		t.Fatalf("expected %s to not exist, got %v", path, err)
	}
}

func TestTakeRoundTrip(t *testing.T) {
	t.Parallel()

	big := bytes.Repeat([]byte("0123456789abcdef\x00"), 1000)
	cases := map[string][]byte{
		"empty":       {},
		"text":        []byte("hello\n"),
		"nul bytes":   {0, 0, 1, 0, 255, 0},
		"exact block": bytes.Repeat([]byte{'x'}, bufferSize),
		"multi block": big,
	}
	for name, data := range cases {
		dir := t.TempDir()
		path := filepath.Join(dir, "f")
		writeFile(t, path, data)

		if err := NewTransferor(os.Geteuid(), -1).Take(path); err != nil {
			t.Fatalf("%s: Take: %v", name, err)
		}

		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("%s: read: %v", name, err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("%s: content changed: got %d bytes, want %d", name, len(got), len(data))
		}
		if uid, _ := owner(t, path); uid != os.Geteuid() {
			t.Fatalf("%s: expected owner %d, got %d", name, os.Geteuid(), uid)
		}
		assertNotExist(t, TempPath(path))
	}
}

func TestTakeCreatesNewInode(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "f")
	writeFile(t, path, []byte("data"))
	before, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	if err := NewTransferor(os.Geteuid(), -1).Take(path); err != nil {
		t.Fatalf("Take: %v", err)
	}

	after, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if os.SameFile(before, after) {
		t.Fatalf("expected a freshly created file")
	}
}

func TestTakeSetsGroup(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "f")
	writeFile(t, path, []byte("data"))

	gid := os.Getegid()
	if err := NewTransferor(os.Geteuid(), gid).Take(path); err != nil {
		t.Fatalf("Take: %v", err)
	}
	uid, got := owner(t, path)
	if uid != os.Geteuid() || got != gid {
		t.Fatalf("expected %d:%d, got %d:%d", os.Geteuid(), gid, uid, got)
	}
}

func TestTakeChownFailureKeepsNewFile(t *testing.T) {
	t.Parallel()
	if os.Geteuid() == 0 {
		t.Skip("root can chown to any group")
	}

	path := filepath.Join(t.TempDir(), "f")
	writeFile(t, path, []byte("data"))

	// An unprivileged process cannot move a file to a group it is not in.
	err := NewTransferor(os.Geteuid(), 0x7ffffffe).Take(path)
	var terr *TransferError
	if !errors.As(err, &terr) || terr.Op != "chown" {
		t.Fatalf("expected chown failure, got %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "data" {
		t.Fatalf("expected new file with content in place, got %q, %v", got, err)
	}
	assertNotExist(t, TempPath(path))
}

func TestTakeRefusesSymlink(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	writeFile(t, target, []byte("secret"))
	link := filepath.Join(dir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	err := NewTransferor(os.Geteuid(), -1).Take(link)
	if !errors.Is(err, ErrNotRegular) {
		t.Fatalf("expected ErrNotRegular, got %v", err)
	}

	info, err := os.Lstat(link)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		t.Fatalf("expected symlink to be left in place: %v", err)
	}
	dest, err := os.Readlink(link)
	if err != nil || dest != target {
		t.Fatalf("expected symlink to still point at %s, got %q, %v", target, dest, err)
	}
	got, err := os.ReadFile(target)
	if err != nil || string(got) != "secret" {
		t.Fatalf("expected target untouched, got %q, %v", got, err)
	}
	assertNotExist(t, TempPath(link))
}

func TestTakeRefusesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "d")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := NewTransferor(os.Geteuid(), -1).Take(dir); !errors.Is(err, ErrNotRegular) {
		t.Fatalf("expected ErrNotRegular, got %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected directory to be left in place: %v", err)
	}
	assertNotExist(t, TempPath(dir))
}

func TestTakeRefusesFIFO(t *testing.T) {
	t.Parallel()

	fifo := filepath.Join(t.TempDir(), "pipe")
	if err := unix.Mkfifo(fifo, 0o644); err != nil {
		t.Skipf("mkfifo: %v", err)
	}

	// Must not block waiting for a writer.
	if err := NewTransferor(os.Geteuid(), -1).Take(fifo); !errors.Is(err, ErrNotRegular) {
		t.Fatalf("expected ErrNotRegular, got %v", err)
	}
	info, err := os.Lstat(fifo)
	if err != nil || info.Mode()&os.ModeNamedPipe == 0 {
		t.Fatalf("expected fifo to be left in place: %v", err)
	}
}

func TestTakeMissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing")
	err := NewTransferor(os.Geteuid(), -1).Take(path)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	assertNotExist(t, path)
	assertNotExist(t, TempPath(path))
}

func TestTakeCopyFailureLeavesTempFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "f")
	writeFile(t, path, []byte("precious"))

	boom := errors.New("disk full")
	tr := NewTransferor(os.Geteuid(), -1)
	tr.copy = func(io.Writer, io.Reader) (int64, error) { return 0, boom }

	err := tr.Take(path)
	if !errors.Is(err, boom) {
		t.Fatalf("expected copy error, got %v", err)
	}
	var terr *TransferError
	if !errors.As(err, &terr) || terr.Residual != TempPath(path) {
		t.Fatalf("expected residual %s to be reported, got %v", TempPath(path), err)
	}
	got, err := os.ReadFile(TempPath(path))
	if err != nil || string(got) != "precious" {
		t.Fatalf("expected content under temporary name, got %q, %v", got, err)
	}
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) / 2, nil }

func TestCopyContent(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte{1, 0, 2}, 5000)
	var out bytes.Buffer
	n, err := copyContent(&out, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("copyContent: %v", err)
	}
	if n != int64(len(data)) || !bytes.Equal(out.Bytes(), data) {
		t.Fatalf("copied %d bytes, content equal: %v", n, bytes.Equal(out.Bytes(), data))
	}

	if _, err := copyContent(shortWriter{}, bytes.NewReader(data)); !errors.Is(err, io.ErrShortWrite) {
		t.Fatalf("expected io.ErrShortWrite, got %v", err)
	}
}

func TestTransferErrorNamesPathOnce(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing")
	err := NewTransferor(os.Geteuid(), -1).Take(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	msg := err.Error()
	if strings.Count(msg, path) != 1 || strings.Count(msg, "open") != 1 {
		t.Fatalf("expected op and path once, got %q", msg)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped not-exist error, got %v", err)
	}

	rename := &TransferError{Op: "rename", Path: "a", Err: &os.LinkError{Op: "rename", Old: "a", New: "a~", Err: os.ErrPermission}}
	if got := rename.Error(); got != "rename a: permission denied" {
		t.Fatalf("unexpected message %q", got)
	}
}
