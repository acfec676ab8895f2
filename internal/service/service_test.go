package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/yatube/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service-%d?mode=memory&cache=shared&_foreign_keys=on", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(db.Models...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func seedUser(t *testing.T, gdb *gorm.DB, username string) db.User {
	t.Helper()
	user := db.User{Username: username, Password: "hashed"}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func seedGroup(t *testing.T, gdb *gorm.DB, slug string) db.Group {
	t.Helper()
	group := db.Group{Title: "Группа " + slug, Slug: slug, Description: "Описание"}
	if err := gdb.Create(&group).Error; err != nil {
		t.Fatalf("create group %s: %v", slug, err)
	}
	return group
}

func seedPosts(t *testing.T, gdb *gorm.DB, author db.User, group *db.Group, n int) []db.Post {
	t.Helper()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	posts := make([]db.Post, 0, n)
	for i := 0; i < n; i++ {
		post := db.Post{
			Text:     fmt.Sprintf("Тестовый текст %d", i),
			AuthorID: author.ID,
			PubDate:  base.Add(time.Duration(i) * time.Minute),
		}
		if group != nil {
			post.GroupID = &group.ID
		}
		posts = append(posts, post)
	}
	if err := gdb.Omit("Author", "Group").Create(&posts).Error; err != nil {
		t.Fatalf("bulk create posts: %v", err)
	}
	return posts
}
