package feed_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"dealbridge/adapters/feed"
)

type event struct {
	Display string
}

func TestChannel(t *testing.T) {
	ch := feed.NewChannel[event]()

	// 測試訂閱
	sub := ch.Subscribe()
	assert.NotNil(t, sub)

	// 廣播不等待訂閱者，送入緩衝後立即返回
	ev := event{Display: "€90.00 (VAT0) / €108.90 (VAT21)"}
	assert.Equal(t, 1, ch.Broadcast(ev))
	assert.Equal(t, ev, <-sub)

	// 測試取消訂閱
	ch.Unsubscribe(sub)
	_, ok := <-sub
	assert.False(t, ok, "channel should be closed")

	// 測試 IsIdle，已無訂閱者時廣播不送達任何人
	assert.True(t, ch.IsIdle(), "channel should be idle")
	assert.Equal(t, 0, ch.Broadcast(ev))
}

func TestChannelSlowSubscriber(t *testing.T) {
	ch := feed.NewChannel[event]()

	stalled := ch.Subscribe()
	active := ch.Subscribe()

	// 塞滿 stalled 的緩衝，active 持續消化
	for i := 0; i < 8; i++ {
		assert.Equal(t, 2, ch.Broadcast(event{Display: fmt.Sprintf("offer-%d", i)}))
		<-active
	}

	// stalled 的緩衝已滿，事件只送達 active
	assert.Equal(t, 1, ch.Broadcast(event{Display: "overflow"}))
	assert.Equal(t, "overflow", (<-active).Display)

	ch.UnsubscribeAll()
	_, ok := <-active
	assert.False(t, ok, "active channel should be closed")

	// stalled 還留著先前的事件，讀完後通道關閉
	drained := 0
	for range stalled {
		drained++
	}
	assert.Equal(t, 8, drained)
}

func TestChannelUnsubscribeAll(t *testing.T) {
	ch := feed.NewChannel[event]()

	first := ch.Subscribe()
	second := ch.Subscribe()

	ch.UnsubscribeAll()
	_, ok := <-first
	assert.False(t, ok, "first channel should be closed")
	_, ok = <-second
	assert.False(t, ok, "second channel should be closed")
	assert.True(t, ch.IsIdle(), "channel should be idle")
}
