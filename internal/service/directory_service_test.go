package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mack/direct-chat/internal/domain"
	"github.com/mack/direct-chat/internal/repository/postgres"
	"github.com/mack/direct-chat/internal/service"
	"github.com/mack/direct-chat/internal/testutil"
)

func TestDirectoryService_List(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	directoryService := service.NewDirectoryService(repos.User)
	ctx := context.Background()

	self, _ := testutil.NewUserBuilder().WithEmail("self@test.local").Build(t, testDB.DB)
	testutil.NewUserBuilder().WithEmail("bob@test.local").Build(t, testDB.DB)
	testutil.NewUserBuilder().WithEmail("alice@test.local").Build(t, testDB.DB)

	users, err := directoryService.List(ctx, self.ID)
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, "alice@test.local", users[0].Email)
	assert.Equal(t, "bob@test.local", users[1].Email)
	for _, u := range users {
		assert.NotEqual(t, self.ID, u.ID, "the caller must not appear in their own directory")
	}
}

func TestFilterUsers(t *testing.T) {
	directory := []*domain.User{
		{ID: uuid.New(), Email: "alice@test.local", DisplayName: "alice"},
		{ID: uuid.New(), Email: "bob@test.local", DisplayName: "Bobby"},
		{ID: uuid.New(), Email: "charlie@test.local", DisplayName: "charlie"},
	}

	tests := []struct {
		name       string
		query      string
		wantEmails []string
	}{
		{
			name:       "empty query returns everyone",
			query:      "",
			wantEmails: []string{"alice@test.local", "bob@test.local", "charlie@test.local"},
		},
		{
			name:       "matches email substring",
			query:      "ali",
			wantEmails: []string{"alice@test.local"},
		},
		{
			name:       "matches display name case-insensitively",
			query:      "BOBBY",
			wantEmails: []string{"bob@test.local"},
		},
		{
			name:       "no matches",
			query:      "zz",
			wantEmails: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := service.FilterUsers(directory, tt.query)

			emails := make([]string, 0, len(got))
			for _, u := range got {
				emails = append(emails, u.Email)
			}
			assert.Equal(t, tt.wantEmails, emails)
		})
	}

	t.Run("filtering is idempotent", func(t *testing.T) {
		once := service.FilterUsers(directory, "test.local")
		twice := service.FilterUsers(once, "test.local")
		assert.Equal(t, once, twice)
	})

	t.Run("input list is not mutated", func(t *testing.T) {
		service.FilterUsers(directory, "alice")
		assert.Len(t, directory, 3)
	})
}
