package domain

import "time"

// NotificationSettings toggles outbound notification channels.
type NotificationSettings struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
	SMS   bool `json:"sms"`
}

// SecuritySettings holds session and password policy knobs.
type SecuritySettings struct {
	TwoFactor             bool `json:"two_factor"`
	SessionTimeoutMinutes int  `json:"session_timeout_minutes"`
	PasswordExpiryDays    int  `json:"password_expiry_days"`
}

// SystemSettings holds operational flags.
type SystemSettings struct {
	MaintenanceMode bool `json:"maintenance_mode"`
	DebugMode       bool `json:"debug_mode"`
	CacheEnabled    bool `json:"cache_enabled"`
}

// Settings is the single application-wide settings document.
type Settings struct {
	SiteName      string               `json:"site_name"`
	Language      string               `json:"language"`
	Theme         string               `json:"theme"`
	Notifications NotificationSettings `json:"notifications"`
	Security      SecuritySettings     `json:"security"`
	System        SystemSettings       `json:"system"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// DefaultSettings returns the factory configuration used on first boot and
// after a reset.
func DefaultSettings() Settings {
	return Settings{
		SiteName: "SaniTrack",
		Language: "es",
		Theme:    "light",
		Notifications: NotificationSettings{
			Email: true,
			Push:  false,
			SMS:   true,
		},
		Security: SecuritySettings{
			TwoFactor:             false,
			SessionTimeoutMinutes: 30,
			PasswordExpiryDays:    90,
		},
		System: SystemSettings{
			MaintenanceMode: false,
			DebugMode:       false,
			CacheEnabled:    true,
		},
	}
}
