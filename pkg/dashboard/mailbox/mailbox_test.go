package mailbox

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDrainKeepsPostingOrder(t *testing.T) {
	mailbox := New[int]()

	for i := 0; i < 5; i++ {
		mailbox.Post(i)
	}

	<-mailbox.Signal()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, mailbox.Drain())
	assert.Empty(t, mailbox.Drain())
	assert.Equal(t, 0, mailbox.Len())
}

func TestPostFromManyGoroutines(t *testing.T) {
	mailbox := New[string]()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				mailbox.Post("message")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, mailbox.Len())
	assert.Len(t, mailbox.Drain(), 1000)
}
