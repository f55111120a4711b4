package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	service "github.com/okian/checkboard/internal/app"
	"github.com/okian/checkboard/internal/domain/form"
	"github.com/okian/checkboard/internal/domain/session"
	"github.com/okian/checkboard/internal/domain/types"
	"github.com/okian/checkboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeClient is a scripted remote.Client that counts its calls.
type fakeClient struct {
	mu sync.Mutex

	session        *types.Session
	sessionErr     error
	insertErr      error
	insertPanic    any
	insertBlocks   bool
	entries          []types.LeaderboardEntry
	leaderboardErr   error
	leaderboardPanic any

	sessionCalls     int
	tokens           []string
	inserted         []types.Submission
	leaderboardCalls int
}

func (f *fakeClient) GetSession(_ context.Context, accessToken string) (*types.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessionCalls++
	f.tokens = append(f.tokens, accessToken)
	return f.session, f.sessionErr
}

func (f *fakeClient) InsertSubmission(ctx context.Context, sub types.Submission) error {
	f.mu.Lock()
	f.inserted = append(f.inserted, sub)
	blocks, p, err := f.insertBlocks, f.insertPanic, f.insertErr
	f.mu.Unlock()

	if p != nil {
		panic(p)
	}
	if blocks {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (f *fakeClient) GetLeaderboard(_ context.Context) ([]types.LeaderboardEntry, error) {
	f.mu.Lock()
	f.leaderboardCalls++
	entries, p, err := f.entries, f.leaderboardPanic, f.leaderboardErr
	f.mu.Unlock()

	if p != nil {
		panic(p)
	}
	return entries, err
}

func (f *fakeClient) insertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inserted)
}

func signedIn(name string) *fakeClient {
	return &fakeClient{session: &types.Session{UserID: "u-1", DisplayName: name}}
}

func TestService_Open(t *testing.T) {
	Convey("Given a service whose backend has a session", t, func() {
		ctx := context.Background()
		client := signedIn("Ada Lovelace")
		svc := service.New(client)

		Convey("When a page is opened", func() {
			v := svc.Open(ctx, "token-1")

			Convey("Then the session is fetched exactly once with the token", func() {
				So(client.sessionCalls, ShouldEqual, 1)
				So(client.tokens, ShouldResemble, []string{"token-1"})
			})

			Convey("And the view is signed in and stored", func() {
				So(v.Gate.Phase, ShouldEqual, session.SignedIn)
				So(v.DisplayName, ShouldEqual, "Ada Lovelace")
				So(v.ID, ShouldNotBeEmpty)
				stored, err := svc.View(ctx, v.ID)
				So(err, ShouldBeNil)
				So(stored.ID, ShouldEqual, v.ID)
			})

			Convey("And the leaderboard starts empty and unloaded", func() {
				So(v.Board.Loaded, ShouldBeFalse)
				So(v.Board.Entries, ShouldBeEmpty)
				So(client.leaderboardCalls, ShouldEqual, 0)
			})
		})

		Convey("When the page is opened twice", func() {
			a := svc.Open(ctx, "t")
			b := svc.Open(ctx, "t")

			Convey("Then each load gets its own view", func() {
				So(a.ID, ShouldNotEqual, b.ID)
				So(client.sessionCalls, ShouldEqual, 2)
			})
		})
	})

	Convey("Given a session without a display name", t, func() {
		ctx := context.Background()

		Convey("When opened with defaults", func() {
			v := service.New(signedIn("")).Open(ctx, "t")

			Convey("Then the greeting falls back to User", func() {
				So(v.DisplayName, ShouldEqual, "User")
			})
		})

		Convey("When opened with a custom fallback", func() {
			v := service.New(signedIn(""), service.WithFallbackDisplayName("Friend")).Open(ctx, "t")

			Convey("Then the custom fallback is used", func() {
				So(v.DisplayName, ShouldEqual, "Friend")
			})
		})
	})

	Convey("Given a backend without a session", t, func() {
		ctx := context.Background()
		svc := service.New(&fakeClient{})

		Convey("When a page is opened", func() {
			v := svc.Open(ctx, "")

			Convey("Then the view is signed out and not stored", func() {
				So(v.Gate.Phase, ShouldEqual, session.SignedOut)
				_, err := svc.View(ctx, v.ID)
				So(errors.Is(err, service.ErrViewNotFound), ShouldBeTrue)
			})
		})
	})

	Convey("Given a failing session lookup", t, func() {
		ctx := context.Background()
		client := signedIn("Ada")
		client.sessionErr = errors.New("connection refused")
		svc := service.New(client)

		Convey("When a page is opened", func() {
			v := svc.Open(ctx, "t")

			Convey("Then the failure is treated as signed out", func() {
				So(v.Gate.Phase, ShouldEqual, session.SignedOut)
				So(v.Gate.Session, ShouldBeNil)
			})
		})
	})
}

func TestService_Submit(t *testing.T) {
	Convey("Given an open signed-in view", t, func() {
		ctx := context.Background()
		client := signedIn("Ada")
		svc := service.New(client)
		v := svc.Open(ctx, "t")

		Convey("When Bob checks both boxes", func() {
			got, err := svc.Submit(ctx, v.ID, form.Edited{Name: "Bob", Red: true, Blue: true})

			Convey("Then the crafty devil message is shown and nothing is inserted", func() {
				So(err, ShouldBeNil)
				So(got.Form.Status, ShouldEqual, form.Rejected)
				So(got.Form.Message, ShouldEqual, "Bob, you crafty devil. I didn't say you could check both checkboxes!")
				So(client.insertCount(), ShouldEqual, 0)
			})
		})

		Convey("When no box is checked", func() {
			got, err := svc.Submit(ctx, v.ID, form.Edited{Name: "Bob"})

			Convey("Then the user is asked to select one and nothing is inserted", func() {
				So(err, ShouldBeNil)
				So(got.Form.Message, ShouldEqual, "Please select at least one checkbox.")
				So(client.insertCount(), ShouldEqual, 0)
			})
		})

		Convey("When the name is empty", func() {
			got, err := svc.Submit(ctx, v.ID, form.Edited{Red: true})

			Convey("Then the field is required and nothing is inserted", func() {
				So(err, ShouldBeNil)
				So(got.Form.Status, ShouldEqual, form.Idle)
				So(got.Form.Message, ShouldEqual, form.MsgNameRequired)
				So(client.insertCount(), ShouldEqual, 0)
			})
		})

		Convey("When Alice checks red", func() {
			got, err := svc.Submit(ctx, v.ID, form.Edited{Name: "Alice", Red: true})

			Convey("Then exactly one insert is made with her selection", func() {
				So(err, ShouldBeNil)
				So(client.inserted, ShouldResemble, []types.Submission{{Name: "Alice", RedSelected: true}})
				So(got.Form.Status, ShouldEqual, form.Accepted)
				So(got.Form.Message, ShouldEqual, "Alice, you selected the red checkbox!")
			})

			Convey("And the stored view carries the message", func() {
				stored, err := svc.View(ctx, v.ID)
				So(err, ShouldBeNil)
				So(stored.Form.Message, ShouldEqual, "Alice, you selected the red checkbox!")
			})

			Convey("And submitting again inserts again", func() {
				_, err := svc.Submit(ctx, v.ID, form.Edited{Name: "Alice", Red: true})
				So(err, ShouldBeNil)
				So(client.insertCount(), ShouldEqual, 2)
			})
		})

		Convey("When the insert fails", func() {
			client.insertErr = errors.New("503 Service Unavailable")
			got, err := svc.Submit(ctx, v.ID, form.Edited{Name: "Alice", Blue: true})

			Convey("Then a generic message is shown", func() {
				So(err, ShouldBeNil)
				So(got.Form.Status, ShouldEqual, form.Rejected)
				So(got.Form.Message, ShouldEqual, "Error saving your selection.")
			})
		})

		Convey("When the client panics during the insert", func() {
			client.insertPanic = "nil map write"
			got, err := svc.Submit(ctx, v.ID, form.Edited{Name: "Alice", Blue: true})

			Convey("Then the panic is recovered with the unexpected error message", func() {
				So(err, ShouldBeNil)
				So(got.Form.Status, ShouldEqual, form.Rejected)
				So(got.Form.Message, ShouldEqual, "An unexpected error occurred.")
			})
		})

		Convey("When the view id is unknown", func() {
			_, err := svc.Submit(ctx, "no-such-view", form.Edited{Name: "Alice", Red: true})

			Convey("Then ErrViewNotFound is returned and nothing is inserted", func() {
				So(errors.Is(err, service.ErrViewNotFound), ShouldBeTrue)
				So(client.insertCount(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a backend slower than the configured timeout", t, func() {
		ctx := context.Background()
		client := signedIn("Ada")
		client.insertBlocks = true
		svc := service.New(client, service.WithBackendTimeout(20*time.Millisecond))
		v := svc.Open(ctx, "t")

		Convey("When Alice submits", func() {
			got, err := svc.Submit(ctx, v.ID, form.Edited{Name: "Alice", Red: true})

			Convey("Then the call is abandoned and the save error is shown", func() {
				So(err, ShouldBeNil)
				So(got.Form.Message, ShouldEqual, form.MsgSaveFailed)
			})
		})
	})
}

func TestService_Refresh(t *testing.T) {
	Convey("Given an open signed-in view", t, func() {
		ctx := context.Background()
		client := signedIn("Ada")
		client.entries = []types.LeaderboardEntry{{Name: "Bob", SubmissionCount: 2}}
		svc := service.New(client)
		v := svc.Open(ctx, "t")

		_, err := svc.Refresh(ctx, v.ID, form.Edited{})
		So(err, ShouldBeNil)

		Convey("When the backend returns Alice", func() {
			client.entries = []types.LeaderboardEntry{{Name: "Alice", SubmissionCount: 3}}
			got, err := svc.Refresh(ctx, v.ID, form.Edited{})

			Convey("Then the board is replaced exactly", func() {
				So(err, ShouldBeNil)
				want := []types.LeaderboardEntry{{Name: "Alice", SubmissionCount: 3}}
				So(cmp.Diff(want, got.Board.Entries), ShouldBeEmpty)
				So(got.Board.Loaded, ShouldBeTrue)
			})

			Convey("And refreshing again renders the same board", func() {
				again, err := svc.Refresh(ctx, v.ID, form.Edited{})
				So(err, ShouldBeNil)
				So(cmp.Diff(got.Board, again.Board), ShouldBeEmpty)
				So(client.leaderboardCalls, ShouldEqual, 3)
			})
		})

		Convey("When the refresh fails", func() {
			client.leaderboardErr = errors.New("rpc missing")
			got, err := svc.Refresh(ctx, v.ID, form.Edited{})

			Convey("Then Bob stays on the board", func() {
				So(err, ShouldBeNil)
				So(cmp.Diff([]types.LeaderboardEntry{{Name: "Bob", SubmissionCount: 2}}, got.Board.Entries), ShouldBeEmpty)
			})
		})

		Convey("When the client panics during the refresh", func() {
			client.leaderboardPanic = "boom"
			var got service.View
			var err error
			So(func() { got, err = svc.Refresh(ctx, v.ID, form.Edited{Name: "Ada"}) }, ShouldNotPanic)

			Convey("Then Bob stays on the board", func() {
				So(err, ShouldBeNil)
				So(cmp.Diff([]types.LeaderboardEntry{{Name: "Bob", SubmissionCount: 2}}, got.Board.Entries), ShouldBeEmpty)
				So(got.Form.Name, ShouldEqual, "Ada")
				So(client.leaderboardCalls, ShouldEqual, 2)
			})
		})

		Convey("When the backend returns no rows", func() {
			client.entries = nil
			got, err := svc.Refresh(ctx, v.ID, form.Edited{})

			Convey("Then the board is empty", func() {
				So(err, ShouldBeNil)
				So(got.Board.Entries, ShouldBeEmpty)
			})
		})

		Convey("When the refresh carries unsent edits", func() {
			got, err := svc.Refresh(ctx, v.ID, form.Edited{Name: "Carol", Blue: true})

			Convey("Then the edits are kept on the form", func() {
				So(err, ShouldBeNil)
				So(got.Form.Name, ShouldEqual, "Carol")
				So(got.Form.Blue, ShouldBeTrue)
				So(client.insertCount(), ShouldEqual, 0)
			})
		})

		Convey("When a submission follows a refresh", func() {
			got, err := svc.Submit(ctx, v.ID, form.Edited{Name: "Alice", Red: true})

			Convey("Then the board is left as it was", func() {
				So(err, ShouldBeNil)
				So(cmp.Diff([]types.LeaderboardEntry{{Name: "Bob", SubmissionCount: 2}}, got.Board.Entries), ShouldBeEmpty)
			})
		})

		Convey("When the view id is unknown", func() {
			_, err := svc.Refresh(ctx, "no-such-view", form.Edited{})

			Convey("Then ErrViewNotFound is returned", func() {
				So(errors.Is(err, service.ErrViewNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_Views(t *testing.T) {
	Convey("Given a service bounded to two views", t, func() {
		ctx := context.Background()
		svc := service.New(signedIn("Ada"), service.WithViewCacheSize(2))

		Convey("When three pages are opened", func() {
			first := svc.Open(ctx, "t")
			svc.Open(ctx, "t")
			svc.Open(ctx, "t")

			Convey("Then the oldest view is gone", func() {
				_, err := svc.View(ctx, first.ID)
				So(errors.Is(err, service.ErrViewNotFound), ShouldBeTrue)
			})

			Convey("And stats report the bound", func() {
				stats := svc.GetStats()
				So(stats["views"], ShouldEqual, 2)
				So(stats["viewCapacity"], ShouldEqual, 2)
			})
		})
	})
}
