package platform

import "time"

// Options configures how a notification is displayed.
type Options struct {
	// AppName identifies the sender to the notification service.
	AppName string
	// IconPath is an image shown alongside the message where supported.
	IconPath string
	// Timeout is how long the notification stays visible. Zero lets the
	// platform decide.
	Timeout time.Duration
}

func (o Options) appName() string {
	if o.AppName == "" {
		return "Cursive"
	}
	return o.AppName
}
