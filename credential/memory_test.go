package credential

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goSignup "github.com/MrEthical07/goSignup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	cred := goSignup.Credential{ID: "id-1", Email: "ann@example.com", PasswordHash: "h", Name: "Ann", Role: goSignup.RoleUser, CreatedAt: time.Now()}

	exists, err := s.Exists(ctx, cred.Email)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.Create(ctx, cred))
	assert.ErrorIs(t, s.Create(ctx, goSignup.Credential{ID: "id-2", Email: cred.Email}), goSignup.ErrDuplicateEmail)

	byEmail, err := s.GetByEmail(ctx, cred.Email)
	require.NoError(t, err)
	assert.Equal(t, cred, *byEmail)

	byID, err := s.GetByID(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, cred, *byID)

	_, err = s.GetByID(ctx, "id-2")
	assert.ErrorIs(t, err, goSignup.ErrCredentialNotFound)
	_, err = s.GetByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, goSignup.ErrCredentialNotFound)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStoreConcurrentCreateHasOneWinner(t *testing.T) {
	s := NewMemoryStore()
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.Create(context.Background(), goSignup.Credential{ID: fmt.Sprintf("id-%d", i), Email: "ann@example.com"})
			if err == nil {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}
