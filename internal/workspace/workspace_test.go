package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestManager_AcquireAndRelease(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	mgr := NewManager(base, nil, nil)

	ws, err := mgr.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}

	if !strings.HasPrefix(filepath.Base(ws.Dir()), "docpress-") {
		t.Errorf("unexpected workspace name: %s", ws.Dir())
	}
	if _, err := os.Stat(ws.Dir()); err != nil {
		t.Fatalf("workspace does not exist: %v", err)
	}

	if err := ws.Release(); err != nil {
		t.Fatalf("Release() failed: %v", err)
	}
	if _, err := os.Stat(ws.Dir()); !os.IsNotExist(err) {
		t.Errorf("workspace still exists after release: %s", ws.Dir())
	}

	// Second release is a no-op.
	if err := ws.Release(); err != nil {
		t.Errorf("second Release() = %v, want nil", err)
	}
}

func TestManager_MaterializesAssets(t *testing.T) {
	t.Parallel()

	assetDir := t.TempDir()
	logo := filepath.Join(assetDir, "logo.svg")
	if err := os.WriteFile(logo, []byte("<svg/>"), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	mgr := NewManager(t.TempDir(), []string{logo}, nil)
	ws, err := mgr.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}
	defer ws.Release()

	got, err := os.ReadFile(ws.Path("logo.svg"))
	if err != nil {
		t.Fatalf("logo not materialized: %v", err)
	}
	if string(got) != "<svg/>" {
		t.Errorf("logo content = %q", got)
	}
}

func TestManager_MissingAssetLeavesNothingBehind(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	mgr := NewManager(base, []string{filepath.Join(base, "missing.svg")}, nil)

	_, err := mgr.Acquire(context.Background())
	if !errors.Is(err, ErrWorkspace) {
		t.Fatalf("Acquire() error = %v, want ErrWorkspace", err)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		t.Fatalf("reading base: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "docpress-") {
			t.Errorf("leftover workspace %s", e.Name())
		}
	}
}

func TestManager_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewManager(t.TempDir(), nil, nil).Acquire(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire() error = %v, want context.Canceled", err)
	}
}

func TestWorkspace_WriteImages(t *testing.T) {
	t.Parallel()

	ws, err := NewManager(t.TempDir(), nil, nil).Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}
	defer ws.Release()

	err = ws.WriteImages(map[string][]byte{
		"a.svg": []byte("a"),
		"b.png": []byte("b"),
	})
	if err != nil {
		t.Fatalf("WriteImages() failed: %v", err)
	}
	for _, name := range []string{"a.svg", "b.png"} {
		if _, err := os.Stat(ws.Path(name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	err = ws.WriteImages(map[string][]byte{"../x.svg": []byte("x")})
	if !errors.Is(err, ErrWorkspace) {
		t.Errorf("traversal error = %v, want ErrWorkspace", err)
	}
}

func TestManager_ConcurrentWorkspacesAreIsolated(t *testing.T) {
	t.Parallel()

	mgr := NewManager(t.TempDir(), nil, nil)

	const n = 8
	dirs := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ws, err := mgr.Acquire(context.Background())
			if err != nil {
				t.Errorf("Acquire() failed: %v", err)
				return
			}
			dirs[i] = ws.Dir()
			_ = ws.Release()
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, d := range dirs {
		if seen[d] {
			t.Errorf("workspace %s handed out twice", d)
		}
		seen[d] = true
	}
}
