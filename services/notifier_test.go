package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lborres/coupons/core"
)

// Requirement: Publish reaches every current subscriber and none that unsubscribed.
func TestNotifier_PublishAndUnsubscribe(t *testing.T) {
	// Arrange
	n := NewNotifier()
	var first, second []core.SessionEvent
	unsubFirst := n.Subscribe(func(c core.SessionChange) { first = append(first, c.Event) })
	unsubSecond := n.Subscribe(func(c core.SessionChange) { second = append(second, c.Event) })
	defer unsubSecond()

	// Act
	n.Publish(core.SessionChange{Event: core.EventUserUpdated, UserID: "u"})
	unsubFirst()
	unsubFirst()
	n.Publish(core.SessionChange{Event: core.EventSignedOut, UserID: "u"})

	// Assert
	assert.Equal(t, []core.SessionEvent{core.EventUserUpdated}, first)
	assert.Equal(t, []core.SessionEvent{core.EventUserUpdated, core.EventSignedOut}, second)
	assert.Equal(t, 1, n.Len())
}
