package ws

import (
	"fmt"
	"strconv"
	"strings"
)

type roomKind uint8

const (
	roomUser roomKind = iota
	roomThreadCreate
	roomThread
)

// Room is a closed identifier naming one broadcast channel. The grammar is
//
//	"user" | "thread_create" | "thread_<integer id>"
//
// Room is comparable and usable as a map key.
type Room struct {
	kind     roomKind
	threadID int32
}

// UserRoom carries account-level broadcasts.
func UserRoom() Room { return Room{kind: roomUser} }

// ThreadCreateRoom carries notifications of newly created threads.
func ThreadCreateRoom() Room { return Room{kind: roomThreadCreate} }

// ThreadRoom carries all mutations scoped to one thread.
func ThreadRoom(threadID int32) Room { return Room{kind: roomThread, threadID: threadID} }

func (r Room) String() string {
	switch r.kind {
	case roomUser:
		return "user"
	case roomThreadCreate:
		return "thread_create"
	default:
		return fmt.Sprintf("thread_%d", r.threadID)
	}
}

// ParseRoom parses a room name against the closed grammar. It is total:
// unparseable names report ok=false and are expected to be silently
// discarded by the caller, tolerating clients that speak a newer or older
// protocol revision.
func ParseRoom(name string) (Room, bool) {
	switch {
	case name == "user":
		return UserRoom(), true
	case name == "thread_create":
		return ThreadCreateRoom(), true
	case strings.HasPrefix(name, "thread_"):
		id, err := strconv.ParseInt(name[len("thread_"):], 10, 32)
		if err != nil {
			return Room{}, false
		}
		return ThreadRoom(int32(id)), true
	default:
		return Room{}, false
	}
}
