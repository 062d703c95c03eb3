package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dandi-ai-notebooks/notebook-review-api/internal/model"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/testutil"
)

// store is the method set shared by Repository and MemoryStore.
type store interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByToken(ctx context.Context, token string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	DeleteUser(ctx context.Context, email string) error
	CreateReview(ctx context.Context, review *model.Review) error
	ListReviewsByReviewer(ctx context.Context, email string) ([]*model.Review, error)
	ListReviews(ctx context.Context, filter ReviewFilter) ([]*model.Review, error)
	GetReviewByNotebook(ctx context.Context, notebookURI string) (*model.Review, error)
	UpdateOwnedReview(ctx context.Context, upd ReviewUpdate) (*model.Review, error)
	DeleteOwnedReview(ctx context.Context, notebookURI, reviewerEmail string) error
	ReassignReview(ctx context.Context, id, reviewerEmail string, editedAt time.Time) (*model.Review, error)
}

var (
	_ store = (*Repository)(nil)
	_ store = (*MemoryStore)(nil)
)

// runStoreContract exercises behaviour both stores must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) store) {
	t.Run("CreateReview_DuplicateNotebookAnyOwner", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		uri := testutil.UniqueNotebookURI("dup")

		if err := s.CreateReview(ctx, testutil.NewTestReview(t, uri, "a@x.com")); err != nil {
			t.Fatalf("CreateReview failed: %v", err)
		}

		for _, owner := range []string{"a@x.com", "b@x.com"} {
			err := s.CreateReview(ctx, testutil.NewTestReview(t, uri, owner))
			if !errors.Is(err, ErrReviewExists) {
				t.Errorf("owner %s: expected ErrReviewExists, got %v", owner, err)
			}
		}
	})

	t.Run("ResponsesRoundTrip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		uri := testutil.UniqueNotebookURI("roundtrip")
		review := testutil.NewTestReview(t, uri, "a@x.com")
		review.Review.Responses = testutil.SampleResponses(t)

		if err := s.CreateReview(ctx, review); err != nil {
			t.Fatalf("CreateReview failed: %v", err)
		}

		got, err := s.GetReviewByNotebook(ctx, uri)
		if err != nil {
			t.Fatalf("GetReviewByNotebook failed: %v", err)
		}
		assertResponsesEqual(t, got.Review.Responses, review.Review.Responses)
		if got.Review.Status != model.ReviewStatusPending {
			t.Errorf("status = %s, want pending", got.Review.Status)
		}
		if !got.CreatedAt.Equal(review.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, review.CreatedAt)
		}
	})

	t.Run("ListReviewsByReviewer_OnlyOwner", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, owner := range []string{"a@x.com", "a@x.com", "b@x.com"} {
			if err := s.CreateReview(ctx, testutil.NewTestReview(t, testutil.UniqueNotebookURI("list"), owner)); err != nil {
				t.Fatalf("CreateReview failed: %v", err)
			}
		}

		reviews, err := s.ListReviewsByReviewer(ctx, "a@x.com")
		if err != nil {
			t.Fatalf("ListReviewsByReviewer failed: %v", err)
		}
		if len(reviews) != 2 {
			t.Fatalf("expected 2 reviews, got %d", len(reviews))
		}
		for _, r := range reviews {
			if r.ReviewerEmail != "a@x.com" {
				t.Errorf("leaked review owned by %s", r.ReviewerEmail)
			}
		}

		none, err := s.ListReviewsByReviewer(ctx, "nobody@x.com")
		if err != nil {
			t.Fatalf("ListReviewsByReviewer failed: %v", err)
		}
		if none == nil || len(none) != 0 {
			t.Errorf("expected empty non-nil list, got %#v", none)
		}
	})

	t.Run("ListReviews_StatusFilterAndOrder", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		base := testutil.Now()

		first := testutil.NewTestReview(t, testutil.UniqueNotebookURI("first"), "a@x.com")
		first.CreatedAt, first.EditedAt = base, base
		second := testutil.NewTestReview(t, testutil.UniqueNotebookURI("second"), "b@x.com")
		second.CreatedAt, second.EditedAt = base.Add(time.Second), base.Add(time.Second)
		second.Review.Status = model.ReviewStatusCompleted

		for _, r := range []*model.Review{first, second} {
			if err := s.CreateReview(ctx, r); err != nil {
				t.Fatalf("CreateReview failed: %v", err)
			}
		}

		all, err := s.ListReviews(ctx, ReviewFilter{})
		if err != nil {
			t.Fatalf("ListReviews failed: %v", err)
		}
		if len(all) != 2 || all[0].ID != second.ID || all[1].ID != first.ID {
			t.Fatalf("expected newest first, got %+v", all)
		}

		completed, err := s.ListReviews(ctx, ReviewFilter{Statuses: []model.ReviewStatus{model.ReviewStatusCompleted}})
		if err != nil {
			t.Fatalf("ListReviews failed: %v", err)
		}
		if len(completed) != 1 || completed[0].ID != second.ID {
			t.Errorf("expected only the completed review, got %+v", completed)
		}
	})

	t.Run("UpdateOwnedReview", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		uri := testutil.UniqueNotebookURI("update")
		review := testutil.NewTestReview(t, uri, "a@x.com")
		if err := s.CreateReview(ctx, review); err != nil {
			t.Fatalf("CreateReview failed: %v", err)
		}

		completed := model.ReviewStatusCompleted
		responses := testutil.SampleResponses(t)

		// Stale clock: edited time must still advance.
		updated, err := s.UpdateOwnedReview(ctx, ReviewUpdate{
			NotebookURI:   uri,
			ReviewerEmail: "a@x.com",
			Responses:     responses,
			Status:        &completed,
			EditedAt:      review.EditedAt,
		})
		if err != nil {
			t.Fatalf("UpdateOwnedReview failed: %v", err)
		}
		if updated.Review.Status != model.ReviewStatusCompleted {
			t.Errorf("status = %s, want completed", updated.Review.Status)
		}
		if !updated.EditedAt.After(review.EditedAt) {
			t.Errorf("EditedAt %v did not advance past %v", updated.EditedAt, review.EditedAt)
		}
		if !updated.CreatedAt.Equal(review.CreatedAt) {
			t.Error("CreatedAt must not change")
		}
		assertResponsesEqual(t, updated.Review.Responses, responses)

		// Nil status leaves status unchanged.
		again, err := s.UpdateOwnedReview(ctx, ReviewUpdate{
			NotebookURI:   uri,
			ReviewerEmail: "a@x.com",
			Responses:     nil,
			EditedAt:      testutil.Now(),
		})
		if err != nil {
			t.Fatalf("UpdateOwnedReview failed: %v", err)
		}
		if again.Review.Status != model.ReviewStatusCompleted {
			t.Errorf("status = %s, want completed", again.Review.Status)
		}
		if len(again.Review.Responses) != 0 {
			t.Errorf("expected responses replaced with empty list, got %d", len(again.Review.Responses))
		}
		if !again.EditedAt.After(updated.EditedAt) {
			t.Error("EditedAt must strictly increase")
		}
	})

	t.Run("UpdateOwnedReview_WrongOwner", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		uri := testutil.UniqueNotebookURI("wrongowner")
		review := testutil.NewTestReview(t, uri, "a@x.com")
		if err := s.CreateReview(ctx, review); err != nil {
			t.Fatalf("CreateReview failed: %v", err)
		}

		_, err := s.UpdateOwnedReview(ctx, ReviewUpdate{
			NotebookURI:   uri,
			ReviewerEmail: "b@x.com",
			EditedAt:      testutil.Now(),
		})
		if !errors.Is(err, ErrReviewNotFound) {
			t.Fatalf("expected ErrReviewNotFound, got %v", err)
		}

		got, err := s.GetReviewByNotebook(ctx, uri)
		if err != nil {
			t.Fatalf("GetReviewByNotebook failed: %v", err)
		}
		if !got.EditedAt.Equal(review.EditedAt) {
			t.Error("rejected update must not touch the record")
		}
	})

	t.Run("UpdateOwnedReview_LockCompleted", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		uri := testutil.UniqueNotebookURI("locked")
		review := testutil.NewTestReview(t, uri, "a@x.com")
		review.Review.Status = model.ReviewStatusCompleted
		if err := s.CreateReview(ctx, review); err != nil {
			t.Fatalf("CreateReview failed: %v", err)
		}

		_, err := s.UpdateOwnedReview(ctx, ReviewUpdate{
			NotebookURI:   uri,
			ReviewerEmail: "a@x.com",
			EditedAt:      testutil.Now(),
			LockCompleted: true,
		})
		if !errors.Is(err, ErrReviewLocked) {
			t.Fatalf("expected ErrReviewLocked, got %v", err)
		}

		_, err = s.UpdateOwnedReview(ctx, ReviewUpdate{
			NotebookURI:   uri,
			ReviewerEmail: "b@x.com",
			EditedAt:      testutil.Now(),
			LockCompleted: true,
		})
		if !errors.Is(err, ErrReviewNotFound) {
			t.Fatalf("expected ErrReviewNotFound for wrong owner, got %v", err)
		}

		pending := model.ReviewStatusPending
		reopened, err := s.UpdateOwnedReview(ctx, ReviewUpdate{
			NotebookURI:   uri,
			ReviewerEmail: "a@x.com",
			Status:        &pending,
			EditedAt:      testutil.Now(),
			LockCompleted: true,
		})
		if err != nil {
			t.Fatalf("reopen failed: %v", err)
		}
		if reopened.Review.Status != model.ReviewStatusPending {
			t.Errorf("status = %s, want pending", reopened.Review.Status)
		}
	})

	t.Run("DeleteOwnedReview", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		uri := testutil.UniqueNotebookURI("delete")
		if err := s.CreateReview(ctx, testutil.NewTestReview(t, uri, "a@x.com")); err != nil {
			t.Fatalf("CreateReview failed: %v", err)
		}

		if err := s.DeleteOwnedReview(ctx, uri, "b@x.com"); !errors.Is(err, ErrReviewNotFound) {
			t.Errorf("expected ErrReviewNotFound for wrong owner, got %v", err)
		}
		if err := s.DeleteOwnedReview(ctx, uri, "a@x.com"); err != nil {
			t.Fatalf("DeleteOwnedReview failed: %v", err)
		}
		if err := s.DeleteOwnedReview(ctx, uri, "a@x.com"); !errors.Is(err, ErrReviewNotFound) {
			t.Errorf("expected ErrReviewNotFound on second delete, got %v", err)
		}

		// The notebook is free for a new review.
		if err := s.CreateReview(ctx, testutil.NewTestReview(t, uri, "b@x.com")); err != nil {
			t.Errorf("recreate after delete failed: %v", err)
		}
	})

	t.Run("ReassignReview", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		uri := testutil.UniqueNotebookURI("reassign")
		review := testutil.NewTestReview(t, uri, "a@x.com")
		review.Review.Responses = testutil.SampleResponses(t)
		if err := s.CreateReview(ctx, review); err != nil {
			t.Fatalf("CreateReview failed: %v", err)
		}

		moved, err := s.ReassignReview(ctx, review.ID, "b@x.com", testutil.Now())
		if err != nil {
			t.Fatalf("ReassignReview failed: %v", err)
		}
		if moved.ReviewerEmail != "b@x.com" {
			t.Errorf("ReviewerEmail = %s, want b@x.com", moved.ReviewerEmail)
		}
		if moved.NotebookURI != uri || moved.Review.Status != review.Review.Status || !moved.CreatedAt.Equal(review.CreatedAt) {
			t.Error("reassign changed more than owner and edited time")
		}
		assertResponsesEqual(t, moved.Review.Responses, review.Review.Responses)
		if !moved.EditedAt.After(review.EditedAt) {
			t.Error("EditedAt must advance on reassign")
		}

		if _, err := s.ReassignReview(ctx, "missing", "b@x.com", testutil.Now()); !errors.Is(err, ErrReviewNotFound) {
			t.Errorf("expected ErrReviewNotFound, got %v", err)
		}
	})

	t.Run("Users", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		user := testutil.NewTestUser(t, "a@x.com")

		if err := s.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		if err := s.CreateUser(ctx, testutil.NewTestUser(t, "a@x.com")); !errors.Is(err, ErrUserExists) {
			t.Errorf("expected ErrUserExists for duplicate email, got %v", err)
		}
		dupToken := testutil.NewTestUser(t, "b@x.com")
		dupToken.APIToken = user.APIToken
		if err := s.CreateUser(ctx, dupToken); !errors.Is(err, ErrUserExists) {
			t.Errorf("expected ErrUserExists for duplicate token, got %v", err)
		}

		byEmail, err := s.GetUserByEmail(ctx, "a@x.com")
		if err != nil || byEmail.APIToken != user.APIToken || byEmail.Name != user.Name {
			t.Errorf("GetUserByEmail = %+v, %v", byEmail, err)
		}
		byToken, err := s.GetUserByToken(ctx, user.APIToken)
		if err != nil || byToken.Email != "a@x.com" {
			t.Errorf("GetUserByToken = %+v, %v", byToken, err)
		}
		if _, err := s.GetUserByToken(ctx, "nope"); !errors.Is(err, ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}

		users, err := s.ListUsers(ctx)
		if err != nil || len(users) != 1 {
			t.Fatalf("ListUsers = %+v, %v", users, err)
		}

		if err := s.DeleteUser(ctx, "a@x.com"); err != nil {
			t.Fatalf("DeleteUser failed: %v", err)
		}
		if err := s.DeleteUser(ctx, "a@x.com"); !errors.Is(err, ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
		if _, err := s.GetUserByEmail(ctx, "a@x.com"); !errors.Is(err, ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound after delete, got %v", err)
		}
	})
}

func assertResponsesEqual(t *testing.T, got, want []model.Response) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d responses, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].QuestionID != want[i].QuestionID ||
			got[i].Rationale != want[i].Rationale ||
			!got[i].Response.Equal(want[i].Response) {
			t.Errorf("response %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
