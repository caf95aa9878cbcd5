package telegram

import (
	"strings"

	"github.com/dkostiuk/clipferry/internal/config"
)

// Allowed reports whether a sender may use the bot. A chat-level grant covers
// every member of that chat regardless of username; otherwise the sender's
// username must be allow-listed. With access limiting off everyone passes.
func Allowed(access config.AccessConfig, username string, chatID int64) bool {
	if !access.Limit {
		return true
	}

	for _, id := range access.AllowedChatIDs {
		if id == chatID {
			return true
		}
	}

	username = strings.TrimPrefix(strings.ToLower(username), "@")
	if username == "" {
		return false
	}
	for _, allowed := range access.AllowedUsernames {
		if strings.TrimPrefix(strings.ToLower(allowed), "@") == username {
			return true
		}
	}
	return false
}
