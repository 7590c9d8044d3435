package crash

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gositeplan/internal/storage"
)

func TestDumpReportFallsBackToTemp(t *testing.T) {
	path, err := dumpReport(nil, "boom", []byte("stacktrace"))
	if err != nil {
		t.Fatalf("dumpReport: %v", err)
	}
	t.Cleanup(func() { _ = os.Remove(path) })

	name := filepath.Base(path)
	if !strings.HasPrefix(name, "crash-") || !strings.HasSuffix(name, ".log") {
		t.Fatalf("unexpected report name %q", name)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	s := string(b)
	if !strings.HasPrefix(s, "GoSitePlan Crash Report\n") {
		t.Fatalf("report header missing: %s", s)
	}
	if !strings.Contains(s, "Panic: boom") || !strings.Contains(s, "Stack:\nstacktrace") {
		t.Fatalf("panic or stack missing: %s", s)
	}
	if strings.Contains(s, "ProjectRoot:") {
		t.Fatalf("report without a handle should not name a project: %s", s)
	}
}

func TestDumpReportPrefersProjectBackups(t *testing.T) {
	root := t.TempDir()
	ph := &storage.ProjectHandle{Root: root, ManifestPath: filepath.Join(root, storage.ManifestFileName)}

	path, err := dumpReport(ph, "kaboom", []byte("stack"))
	if err != nil {
		t.Fatalf("dumpReport: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(root, storage.BackupsDirName) {
		t.Fatalf("report not under backups dir: %s", path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(b), "ProjectRoot: "+root) {
		t.Fatalf("project root missing from report: %s", b)
	}
}
