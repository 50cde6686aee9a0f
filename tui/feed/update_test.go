package feed

import (
	"errors"
	"strings"
	"testing"

	"github.com/CrestNiraj12/groupchat/chat"
	"github.com/CrestNiraj12/groupchat/domain"
)

func TestRefresh_ProjectsRowsNewestFirstWithRenderedBodies(t *testing.T) {
	h := newHarness(t, me, msgAt("b", 10), msgAt("a", 1), msgAt("c", 5))

	rows := h.model.Rows()
	if got := strings.Join(rowIDs(rows), ","); got != "a,c,b" {
		t.Fatalf("unexpected order %s", got)
	}
	for _, r := range rows {
		if r.RenderStatus != chat.RenderReady {
			t.Fatalf("row %s not rendered after settle: %v", r.ID, r.RenderStatus)
		}
		if r.Body != "<text "+r.ID+">" {
			t.Fatalf("row %s has body %q", r.ID, r.Body)
		}
	}
}

func TestRefreshFailure_KeepsRowsAndShowsError(t *testing.T) {
	h := newHarness(t, me, msgAt("a", 1))
	h.svc.fetchErr = domain.ErrNetworkFailure

	h.press(t, "R")

	if len(h.model.Rows()) != 1 {
		t.Fatalf("rows should survive a failed refresh")
	}
	if !h.model.statusErr || !strings.Contains(h.model.Status(), "Refresh failed") {
		t.Fatalf("expected refresh error status, got %q", h.model.Status())
	}

	h.svc.fetchErr = nil
	h.press(t, "R")
	if h.model.statusErr {
		t.Fatalf("successful refresh should clear the error, got %q", h.model.Status())
	}
}

func TestCursor_FollowsMessageAcrossReorder(t *testing.T) {
	h := newHarness(t, me, msgAt("a", 1), msgAt("b", 2))
	h.press(t, "j")
	if h.model.Cursor() != 1 {
		t.Fatalf("expected cursor on b, got %d", h.model.Cursor())
	}

	h.svc.msgs = append(h.svc.msgs, msgAt("new", 0))
	h.press(t, "R")

	row, _ := h.model.selected()
	if row.ID != "b" {
		t.Fatalf("selection should stay on b, got %s", row.ID)
	}
}

func TestToggle_ExpandsOneRowAtATime(t *testing.T) {
	h := newHarness(t, me, msgAt("a", 1), msgAt("b", 2))

	h.press(t, "enter")
	h.press(t, "j")
	h.press(t, "enter")

	expanded := 0
	for _, r := range h.model.Rows() {
		if r.Expanded {
			expanded++
			if r.ID != "b" {
				t.Fatalf("expected b expanded, got %s", r.ID)
			}
		}
	}
	if expanded != 1 {
		t.Fatalf("expected exactly one expanded row, got %d", expanded)
	}

	h.press(t, "enter")
	for _, r := range h.model.Rows() {
		if r.Expanded {
			t.Fatalf("toggling the expanded row should collapse it")
		}
	}
}

func TestLike_FailureRollsBackAndReports(t *testing.T) {
	h := newHarness(t, me, msgAt("a", 1))
	h.svc.likeErr = domain.ErrNetworkFailure

	h.press(t, "l")

	row := h.model.Rows()[0]
	if row.Likes != 0 || row.LikedByMe {
		t.Fatalf("like should be rolled back, got %+v", row)
	}
	if !h.model.statusErr || !strings.Contains(h.model.Status(), "network") {
		t.Fatalf("expected network error status, got %q", h.model.Status())
	}
}

func TestLike_SuccessKeepsOptimisticCount(t *testing.T) {
	h := newHarness(t, me, msgAt("a", 1))

	h.press(t, "l")

	row := h.model.Rows()[0]
	if row.Likes != 1 || !row.LikedByMe || row.Pending != chat.ActionNone {
		t.Fatalf("unexpected row after like: %+v", row)
	}
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	own := msgAt("a", 1)
	own.AuthorID = me.ID
	h := newHarness(t, me, own, msgAt("b", 2))

	h.press(t, "d")
	if !h.model.confirmDelete {
		t.Fatalf("expected confirmation prompt")
	}
	h.press(t, "n")
	if len(h.model.Rows()) != 2 || h.model.Status() != "Delete cancelled." {
		t.Fatalf("cancel should keep the message, status %q", h.model.Status())
	}

	h.press(t, "d")
	h.press(t, "y")
	if got := strings.Join(rowIDs(h.model.Rows()), ","); got != "b" {
		t.Fatalf("expected a deleted, got %s", got)
	}
	if h.model.Status() != "Message deleted." {
		t.Fatalf("unexpected status %q", h.model.Status())
	}
}

func TestDelete_FailureRestoresRow(t *testing.T) {
	own := msgAt("a", 1)
	own.AuthorID = me.ID
	h := newHarness(t, me, msgAt("z", 0), own, msgAt("b", 2))
	h.svc.delErr = domain.ErrPermissionDenied

	h.press(t, "j")
	h.press(t, "d")
	h.press(t, "y")

	if got := strings.Join(rowIDs(h.model.Rows()), ","); got != "z,a,b" {
		t.Fatalf("expected a restored in place, got %s", got)
	}
	if !h.model.statusErr {
		t.Fatalf("expected an error status")
	}
}

func TestDelete_FailureRendersRestoredRowAgain(t *testing.T) {
	own := msgAt("a", 1)
	own.AuthorID = me.ID
	h := newHarness(t, me, own)
	h.svc.delErr = domain.ErrPermissionDenied

	h.press(t, "d")
	h.press(t, "y")

	rows := h.model.Rows()
	if len(rows) != 1 || rows[0].ID != "a" {
		t.Fatalf("expected a restored, got %v", rowIDs(rows))
	}
	if rows[0].RenderStatus != chat.RenderReady || rows[0].Body != "<text a>" {
		t.Fatalf("restored row not rendered: %v %q", rows[0].RenderStatus, rows[0].Body)
	}

	h.press(t, "R")
	if got := h.model.Rows()[0]; got.RenderStatus != chat.RenderReady {
		t.Fatalf("row fell back to raw text after refresh: %v", got.RenderStatus)
	}
}

func TestDelete_NotOfferedOnForeignMessage(t *testing.T) {
	h := newHarness(t, me, msgAt("a", 1))
	h.press(t, "d")
	if h.model.confirmDelete {
		t.Fatalf("delete must not be offered on someone else's message")
	}
}

func TestCompose_GatedOnGuidelines(t *testing.T) {
	newbie := me
	newbie.GuidelinesAccepted = false
	h := newHarness(t, newbie, msgAt("a", 1))

	if out := h.press(t, "i"); len(out) != 0 {
		t.Fatalf("composer should not open before acceptance, got %v", out)
	}
	if !h.model.guidelinesPrompt {
		t.Fatalf("expected guidelines prompt")
	}

	out := h.press(t, "y")
	if len(out) != 1 {
		t.Fatalf("expected compose request after acceptance, got %v", out)
	}
	if _, ok := out[0].(ComposeRequestMsg); !ok {
		t.Fatalf("expected ComposeRequestMsg, got %T", out[0])
	}
	if !h.coord.GuidelinesAccepted() {
		t.Fatalf("acceptance should be recorded")
	}
}

func TestReply_PrefillsMention(t *testing.T) {
	h := newHarness(t, me, msgAt("a", 1))
	out := h.press(t, "r")
	if len(out) != 1 {
		t.Fatalf("expected one compose request, got %v", out)
	}
	req := out[0].(ComposeRequestMsg)
	if req.Draft != "@usera " || req.ReplyTo != "@usera" {
		t.Fatalf("unexpected reply request %+v", req)
	}
}

func TestReply_RefusedOnSystemMessage(t *testing.T) {
	sys := domain.Message{ID: "s", Text: "`Party quest started`", Timestamp: base, System: true}
	h := newHarness(t, me, sys)
	if out := h.press(t, "r"); len(out) != 0 {
		t.Fatalf("system messages cannot be answered, got %v", out)
	}
}

func TestPost_SendsAndRefreshes(t *testing.T) {
	h := newHarness(t, me, msgAt("a", 1))
	h.svc.msgs = append(h.svc.msgs, msgAt("mine", 0))

	m, c := h.model.Post("  hello  ")
	h.model = m
	h.drain(t, c)

	if len(h.svc.posted) != 1 || h.svc.posted[0] != "hello" {
		t.Fatalf("unexpected posts %v", h.svc.posted)
	}
	if h.model.Rows()[0].ID != "mine" {
		t.Fatalf("post should refresh the feed, got %v", rowIDs(h.model.Rows()))
	}
}

func TestPost_EmptyIsRejectedLocally(t *testing.T) {
	h := newHarness(t, me, msgAt("a", 1))
	m, cmd := h.model.Post("   ")
	if cmd != nil {
		t.Fatalf("empty post must not reach the server")
	}
	if !m.statusErr || !strings.Contains(m.Status(), "empty") {
		t.Fatalf("unexpected status %q", m.Status())
	}
}

func TestFlag_ReportsSelectedMessage(t *testing.T) {
	h := newHarness(t, me, msgAt("a", 1))
	h.press(t, "f")
	if len(h.svc.flagged) != 1 || h.svc.flagged[0] != "a" {
		t.Fatalf("unexpected flags %v", h.svc.flagged)
	}
	if h.model.Status() != "Message reported to moderators." {
		t.Fatalf("unexpected status %q", h.model.Status())
	}
}

func TestCopy_WritesRawText(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(s string) error { copied = s; return nil }
	t.Cleanup(func() { writeClipboard = orig })

	h := newHarness(t, me, msgAt("a", 1))
	h.press(t, "y")
	if copied != "text a" {
		t.Fatalf("expected raw text copied, got %q", copied)
	}
	if h.model.Status() != "Copied to clipboard." {
		t.Fatalf("unexpected status %q", h.model.Status())
	}
}

func TestCopy_FailureIsReported(t *testing.T) {
	orig := writeClipboard
	writeClipboard = func(string) error { return errors.New("no clipboard") }
	t.Cleanup(func() { writeClipboard = orig })

	h := newHarness(t, me, msgAt("a", 1))
	h.press(t, "y")
	if !h.model.statusErr {
		t.Fatalf("expected copy error")
	}
}

func TestProfile_OpensAuthorPage(t *testing.T) {
	var opened string
	orig := startBrowser
	startBrowser = func(u string) error { opened = u; return nil }
	t.Cleanup(func() { startBrowser = orig })

	h := newHarness(t, me, msgAt("a", 1))
	h.press(t, "u")
	if opened != "https://habitica.com/profile/u-a" {
		t.Fatalf("unexpected url %q", opened)
	}
}

func TestProfile_NoneForSystemMessage(t *testing.T) {
	orig := startBrowser
	startBrowser = func(string) error { t.Fatalf("browser must not open"); return nil }
	t.Cleanup(func() { startBrowser = orig })

	sys := domain.Message{ID: "s", Text: "quest", Timestamp: base, System: true}
	h := newHarness(t, me, sys)
	h.press(t, "u")
	if h.model.Status() != "No profile for this message." {
		t.Fatalf("unexpected status %q", h.model.Status())
	}
}

func TestNewestID_FallsBackToLastSeen(t *testing.T) {
	h := newHarness(t, me)
	h.model.lastSeenID = "old"
	if h.model.NewestID() != "old" {
		t.Fatalf("expected fallback to last seen id")
	}
	h.svc.msgs = []domain.Message{msgAt("a", 1)}
	h.press(t, "R")
	if h.model.NewestID() != "a" {
		t.Fatalf("expected newest row id, got %q", h.model.NewestID())
	}
}
