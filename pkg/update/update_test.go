package update

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pipstale/pipstale/pkg/manifest"
	"github.com/pipstale/pipstale/pkg/resolve"
)

// scriptedPrompter replays a fixed sequence of decisions.
type scriptedPrompter struct {
	decisions []Decision
	asked     []string
}

func (s *scriptedPrompter) Confirm(ctx context.Context, p Proposal) (Decision, error) {
	s.asked = append(s.asked, p.Name())
	if len(s.decisions) == 0 {
		return DecisionNo, errors.New("prompter exhausted")
	}
	d := s.decisions[0]
	s.decisions = s.decisions[1:]
	return d, nil
}

func writeManifest(t *testing.T, content string) (*manifest.File, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "requirements.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	f, warnings, err := manifest.Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	return f, path
}

func outdated(line *manifest.Line, latest string) resolve.Result {
	return resolve.Result{Line: line, Latest: latest, Status: resolve.StatusOutdated}
}

func readBack(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestProposalsSelection(t *testing.T) {
	f, _ := writeManifest(t, "requests==2.25.0\nflask\nnumpy==1.26.0\n")
	reqs := f.Requirements()
	results := []resolve.Result{
		outdated(reqs[0], "2.31.0"),
		{Line: reqs[1], Latest: "2.3.0", Status: resolve.StatusUnpinned},
		{Line: reqs[2], Latest: "1.26.0", Status: resolve.StatusUpToDate},
	}

	if got := Proposals(results, false); len(got) != 1 || got[0].Name() != "requests" {
		t.Errorf("proposals = %v", got)
	}
	if got := Proposals(results, true); len(got) != 2 || got[1].Name() != "flask" {
		t.Errorf("proposals with unpinned = %v", got)
	}
}

func TestRunYesAndNo(t *testing.T) {
	f, path := writeManifest(t, "requests==2.25.0\ndjango==3.2.0\n")
	reqs := f.Requirements()
	proposals := Proposals([]resolve.Result{
		outdated(reqs[0], "2.31.0"),
		outdated(reqs[1], "4.2.1"),
	}, false)

	p := &scriptedPrompter{decisions: []Decision{DecisionYes, DecisionNo}}
	sum, err := Run(context.Background(), f, proposals, p, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Applied) != 1 || sum.Applied[0].Name() != "requests" {
		t.Errorf("applied = %v", sum.Applied)
	}
	if len(sum.Skipped) != 1 || sum.Skipped[0].Name() != "django" {
		t.Errorf("skipped = %v", sum.Skipped)
	}

	content := readBack(t, path)
	if !strings.Contains(content, "requests==2.31.0") {
		t.Errorf("accepted bump not written:\n%s", content)
	}
	if !strings.Contains(content, "django==3.2.0") {
		t.Errorf("declined line changed:\n%s", content)
	}
}

func TestRunAllShortCircuits(t *testing.T) {
	f, path := writeManifest(t, "a==1.0\nb==1.0\nc==1.0\n")
	reqs := f.Requirements()
	proposals := Proposals([]resolve.Result{
		outdated(reqs[0], "2.0"),
		outdated(reqs[1], "2.0"),
		outdated(reqs[2], "2.0"),
	}, false)

	p := &scriptedPrompter{decisions: []Decision{DecisionAll}}
	sum, err := Run(context.Background(), f, proposals, p, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Applied) != 3 {
		t.Fatalf("applied = %d, want 3", len(sum.Applied))
	}
	if len(p.asked) != 1 {
		t.Errorf("prompter asked %d times, want 1", len(p.asked))
	}
	content := readBack(t, path)
	if strings.Count(content, "==2.0") != 3 {
		t.Errorf("not all bumps written:\n%s", content)
	}
}

func TestRunQuitKeepsEarlierBumps(t *testing.T) {
	f, path := writeManifest(t, "a==1.0\nb==1.0\nc==1.0\n")
	reqs := f.Requirements()
	proposals := Proposals([]resolve.Result{
		outdated(reqs[0], "2.0"),
		outdated(reqs[1], "2.0"),
		outdated(reqs[2], "2.0"),
	}, false)

	p := &scriptedPrompter{decisions: []Decision{DecisionYes, DecisionQuit}}
	sum, err := Run(context.Background(), f, proposals, p, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !sum.Quit {
		t.Error("summary should record the early stop")
	}
	if len(sum.Applied) != 1 || len(sum.Skipped) != 2 {
		t.Errorf("applied/skipped = %d/%d", len(sum.Applied), len(sum.Skipped))
	}
	if len(p.asked) != 2 {
		t.Errorf("prompter asked %d times, want 2", len(p.asked))
	}

	content := readBack(t, path)
	if !strings.Contains(content, "a==2.0") {
		t.Errorf("earlier bump lost:\n%s", content)
	}
	if !strings.Contains(content, "b==1.0") || !strings.Contains(content, "c==1.0") {
		t.Errorf("skipped lines changed:\n%s", content)
	}
}

func TestRunAutoNeverPrompts(t *testing.T) {
	f, path := writeManifest(t, "a==1.0\nflask  # web\n")
	reqs := f.Requirements()
	proposals := Proposals([]resolve.Result{
		outdated(reqs[0], "2.0"),
		{Line: reqs[1], Latest: "2.3.0", Status: resolve.StatusUnpinned},
	}, true)

	p := &scriptedPrompter{}
	sum, err := Run(context.Background(), f, proposals, p, Options{Auto: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.asked) != 0 {
		t.Errorf("auto mode prompted %d times", len(p.asked))
	}
	if len(sum.Applied) != 2 {
		t.Fatalf("applied = %d, want 2", len(sum.Applied))
	}

	content := readBack(t, path)
	if !strings.Contains(content, "flask==2.3.0  # web") {
		t.Errorf("unpinned package not pinned in place:\n%s", content)
	}
}

func TestRunNothingAcceptedWritesNothing(t *testing.T) {
	f, path := writeManifest(t, "a==1.0\n")
	before, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	proposals := Proposals([]resolve.Result{outdated(f.Requirements()[0], "2.0")}, false)
	p := &scriptedPrompter{decisions: []Decision{DecisionNo}}
	if _, err := Run(context.Background(), f, proposals, p, Options{}); err != nil {
		t.Fatal(err)
	}

	after, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !after.ModTime().Equal(before.ModTime()) && readBack(t, path) != "a==1.0\n" {
		t.Error("file rewritten although nothing was accepted")
	}
}

func TestRunPrompterError(t *testing.T) {
	f, _ := writeManifest(t, "a==1.0\n")
	proposals := Proposals([]resolve.Result{outdated(f.Requirements()[0], "2.0")}, false)

	p := &scriptedPrompter{} // exhausted immediately
	if _, err := Run(context.Background(), f, proposals, p, Options{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestRunUpdatesIncludedFile(t *testing.T) {
	dir := t.TempDir()
	incPath := filepath.Join(dir, "base.txt")
	rootPath := filepath.Join(dir, "requirements.txt")
	if err := os.WriteFile(incPath, []byte("celery==5.2.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(rootPath, []byte("-r base.txt\nrequests==2.25.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, _, err := manifest.Parse(rootPath)
	if err != nil {
		t.Fatal(err)
	}
	reqs := f.Requirements()
	proposals := Proposals([]resolve.Result{
		outdated(reqs[0], "5.3.4"), // celery, from the include
	}, false)

	if _, err := Run(context.Background(), f, proposals, &scriptedPrompter{}, Options{Auto: true}); err != nil {
		t.Fatal(err)
	}

	if got := readBack(t, incPath); got != "celery==5.3.4\n" {
		t.Errorf("include file = %q", got)
	}
	if got := readBack(t, rootPath); !strings.Contains(got, "requests==2.25.0") {
		t.Errorf("root file changed: %q", got)
	}
}
