package replica

import (
	"context"
	"encoding/hex"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
)

func newTestVerifier(t *testing.T) *SDKVerifier {
	t.Helper()
	v, err := NewSDKVerifier(nil, nil, nil, 64, time.Minute)
	require.NoError(t, err)
	return v
}

func TestVerify_MalformedTokenNeverTouchesStore(t *testing.T) {
	v := newTestVerifier(t)

	_, err := v.Verify(context.Background(), "not-a-valid-token")
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindForbidden, appErr.Kind)
}

func TestVerify_UnrecognizedPrefixIsForbidden(t *testing.T) {
	v := newTestVerifier(t)

	payload := make([]byte, 40) // randomLen(24) + uuid(16), the shape tokencodec.Parse expects
	token := "xyz_" + hex.EncodeToString(payload)

	_, err := v.Verify(context.Background(), token)
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindForbidden, appErr.Kind)
}

func TestClaim_ConcurrentCallersForSameTokenShareOneFuture(t *testing.T) {
	v := newTestVerifier(t)

	const token = "rpa_deadbeef"
	var owners int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, owner := v.claim(token)
			if owner {
				mu.Lock()
				owners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), owners)
}

func TestClaim_ExpiredEntryIsReclaimedByNextCaller(t *testing.T) {
	v := newTestVerifier(t)
	v.ttl = time.Millisecond

	const token = "rpa_deadbeef"
	f1, owner1 := v.claim(token)
	require.True(t, owner1)
	close(f1.done)

	time.Sleep(5 * time.Millisecond)

	f2, owner2 := v.claim(token)
	require.True(t, owner2)
	assert.NotSame(t, f1, f2)
}
