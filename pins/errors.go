package pins

import (
	"net/http"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"
)

// ErrNoDestination aborts a migration when neither the channel override nor
// the default bulletin channel resolves to an accessible channel.
const ErrNoDestination = errors.Sentinel("The Bulletin Board Channel has been deleted or cannot be accessed by the bot! Please verify the channel exists and the Bot has permissions to access it. The bot will not function correctly.\nIf the channel does not exist, please set one using `/setdefaultbulletin`")

// IsNotFound reports whether err is a REST error for a deleted message,
// webhook or channel.
func IsNotFound(err error) bool {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return false
	}
	if rest.Message != nil {
		switch rest.Message.Code {
		case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownWebhook, discordgo.ErrCodeUnknownChannel:
			return true
		}
	}
	return rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound
}

// IsPermissionDenied reports whether err means the bot lacks access.
func IsPermissionDenied(err error) bool {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return false
	}
	if rest.Message != nil {
		switch rest.Message.Code {
		case discordgo.ErrCodeMissingAccess, discordgo.ErrCodeMissingPermissions:
			return true
		}
	}
	return rest.Response != nil && rest.Response.StatusCode == http.StatusForbidden
}
