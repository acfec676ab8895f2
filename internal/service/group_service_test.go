package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/yatube/internal/cache"
	"github.com/yatube/internal/db"
)

func TestGroupService_CreateValidates(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewGroupService(gdb, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, GroupInput{Title: "Коты", Slug: "cats", Description: "Про котов"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	tests := []struct {
		name  string
		input GroupInput
		field string
		want  string
	}{
		{name: "missing title", input: GroupInput{Slug: "a", Description: "d"}, field: "title", want: MsgRequired},
		{name: "long title", input: GroupInput{Title: strings.Repeat("т", 201), Slug: "b", Description: "d"}, field: "title", want: MaxLengthMessage(200)},
		{name: "missing slug", input: GroupInput{Title: "t", Description: "d"}, field: "slug", want: MsgRequired},
		{name: "long slug", input: GroupInput{Title: "t", Slug: strings.Repeat("s", 26), Description: "d"}, field: "slug", want: MaxLengthMessage(25)},
		{name: "bad slug", input: GroupInput{Title: "t", Slug: "коты", Description: "d"}, field: "slug", want: MsgSlugInvalid},
		{name: "taken slug", input: GroupInput{Title: "t", Slug: "cats", Description: "d"}, field: "slug", want: MsgSlugTaken},
		{name: "missing description", input: GroupInput{Title: "t", Slug: "c"}, field: "description", want: MsgRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.input)
			var fields FieldErrors
			if !errors.As(err, &fields) {
				t.Fatalf("expected FieldErrors, got %v", err)
			}
			if fields[tt.field] != tt.want {
				t.Fatalf("expected %s error %q, got %q", tt.field, tt.want, fields[tt.field])
			}
		})
	}
}

func TestGroupService_UpdateKeepsOwnSlug(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewGroupService(gdb, nil)
	ctx := context.Background()

	group := seedGroup(t, gdb, "cats")
	seedGroup(t, gdb, "dogs")

	updated, err := svc.Update(ctx, group.ID, GroupInput{Title: "Кошки", Slug: "cats", Description: "Новое"})
	if err != nil {
		t.Fatalf("update with own slug: %v", err)
	}
	if updated.Title != "Кошки" {
		t.Fatalf("expected new title, got %q", updated.Title)
	}

	if _, err := svc.Update(ctx, group.ID, GroupInput{Title: "x", Slug: "dogs", Description: "d"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected slug clash, got %v", err)
	}
	if _, err := svc.Update(ctx, 999, GroupInput{Title: "x", Slug: "x", Description: "d"}); !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound, got %v", err)
	}
}

func TestGroupService_GetBySlug(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewGroupService(gdb, nil)
	group := seedGroup(t, gdb, "test-slug")

	got, err := svc.GetBySlug("test-slug")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if got.ID != group.ID {
		t.Fatalf("expected group %d, got %d", group.ID, got.ID)
	}
	if _, err := svc.GetBySlug("missing"); !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound, got %v", err)
	}
}

func TestGroupService_ListFilters(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewGroupService(gdb, nil)
	seedGroup(t, gdb, "cats")
	seedGroup(t, gdb, "dogs")

	all, err := svc.List(GroupFilter{})
	if err != nil || len(all) != 2 {
		t.Fatalf("expected 2 groups, got %d (%v)", len(all), err)
	}
	bySearch, _ := svc.List(GroupFilter{Search: "cat"})
	if len(bySearch) != 1 || bySearch[0].Slug != "cats" {
		t.Fatalf("unexpected search result %+v", bySearch)
	}
	bySlug, _ := svc.List(GroupFilter{Slug: "dogs"})
	if len(bySlug) != 1 || bySlug[0].Slug != "dogs" {
		t.Fatalf("unexpected slug filter result %+v", bySlug)
	}
	byTitle, _ := svc.List(GroupFilter{Title: "Группа cats"})
	if len(byTitle) != 1 {
		t.Fatalf("unexpected title filter result %+v", byTitle)
	}
}

func TestGroupService_DeleteNullsPostGroups(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewGroupService(gdb, nil)
	ctx := context.Background()

	author := seedUser(t, gdb, "author")
	group := seedGroup(t, gdb, "cats")
	seedPosts(t, gdb, author, &group, 3)

	if err := svc.Delete(ctx, group.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var grouped int64
	gdb.Model(&db.Post{}).Where("group_id IS NOT NULL").Count(&grouped)
	if grouped != 0 {
		t.Fatalf("expected posts to lose their group, %d still grouped", grouped)
	}
	var total int64
	gdb.Model(&db.Post{}).Count(&total)
	if total != 3 {
		t.Fatalf("expected posts to survive group deletion, got %d", total)
	}

	if err := svc.Delete(ctx, group.ID); !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound, got %v", err)
	}
}

func TestGroupService_AllIsCachedAndInvalidated(t *testing.T) {
	gdb := setupServiceTestDB(t)

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	c := cache.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	defer c.Close()

	svc := NewGroupService(gdb, c)
	ctx := context.Background()
	seedGroup(t, gdb, "cats")

	groups, err := svc.All(ctx)
	if err != nil || len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d (%v)", len(groups), err)
	}
	if !mr.Exists("yatube:" + groupChoicesCacheKey) {
		t.Fatal("expected group choices to be cached")
	}

	// bypasses the service, so the cached list stays stale
	seedGroup(t, gdb, "dogs")
	groups, _ = svc.All(ctx)
	if len(groups) != 1 {
		t.Fatalf("expected cached list with 1 group, got %d", len(groups))
	}

	if _, err := svc.Create(ctx, GroupInput{Title: "Птицы", Slug: "birds", Description: "d"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	groups, _ = svc.All(ctx)
	if len(groups) != 3 {
		t.Fatalf("expected refreshed list with 3 groups, got %d", len(groups))
	}
}
