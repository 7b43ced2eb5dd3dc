package models

// ReminderInterval configures one upcoming reminder, DaysBefore days ahead of the due date.
type ReminderInterval struct {
	DaysBefore          int  `bson:"daysBefore" json:"daysBefore" mapstructure:"daysBefore"`
	Enabled             bool `bson:"enabled" json:"enabled" mapstructure:"enabled"`
	EmailEnabled        bool `bson:"emailEnabled" json:"emailEnabled" mapstructure:"emailEnabled"`
	ConversationEnabled bool `bson:"conversationEnabled" json:"conversationEnabled" mapstructure:"conversationEnabled"`
}

// OverdueReminders configures escalation after the due date has passed.
type OverdueReminders struct {
	Enabled             bool `bson:"enabled" json:"enabled"`
	IntervalDays        int  `bson:"intervalDays" json:"intervalDays"`
	MaxReminders        int  `bson:"maxReminders" json:"maxReminders"`
	EmailEnabled        bool `bson:"emailEnabled" json:"emailEnabled"`
	ConversationEnabled bool `bson:"conversationEnabled" json:"conversationEnabled"`
}

// ReminderConfig is the deadline reminder section of the platform settings.
type ReminderConfig struct {
	Enabled          bool               `bson:"enabled" json:"enabled"`
	Intervals        []ReminderInterval `bson:"intervals" json:"intervals"`
	OverdueReminders OverdueReminders   `bson:"overdueReminders" json:"overdueReminders"`
}

// ChannelSet says which delivery channels apply to a reminder offset.
type ChannelSet struct {
	Email        bool
	Conversation bool
}

// DefaultReminderConfig is used when no settings document has been saved yet.
func DefaultReminderConfig() ReminderConfig {
	return ReminderConfig{
		Enabled: true,
		Intervals: []ReminderInterval{
			{DaysBefore: 7, Enabled: true, EmailEnabled: true, ConversationEnabled: true},
			{DaysBefore: 3, Enabled: true, EmailEnabled: true, ConversationEnabled: true},
			{DaysBefore: 1, Enabled: true, EmailEnabled: true, ConversationEnabled: true},
		},
		OverdueReminders: OverdueReminders{
			Enabled:             true,
			IntervalDays:        3,
			MaxReminders:        3,
			EmailEnabled:        true,
			ConversationEnabled: true,
		},
	}
}

// EnabledIntervals returns the upcoming intervals that are switched on. It is empty when
// reminders are disabled globally.
func (c ReminderConfig) EnabledIntervals() []ReminderInterval {
	if !c.Enabled {
		return nil
	}
	var out []ReminderInterval
	for _, iv := range c.Intervals {
		if iv.Enabled && iv.DaysBefore >= 0 {
			out = append(out, iv)
		}
	}
	return out
}

// OverdueEnabled reports whether overdue escalation is active.
func (c ReminderConfig) OverdueEnabled() bool {
	o := c.OverdueReminders
	return c.Enabled && o.Enabled && o.IntervalDays > 0 && o.MaxReminders > 0
}

// MaxDaysBefore returns the largest enabled upcoming offset, or zero.
func (c ReminderConfig) MaxDaysBefore() int {
	maxDays := 0
	for _, iv := range c.EnabledIntervals() {
		if iv.DaysBefore > maxDays {
			maxDays = iv.DaysBefore
		}
	}
	return maxDays
}

// ResolveChannels returns the channels for a reminder offset and whether that offset is
// still enabled under the current configuration.
func (c ReminderConfig) ResolveChannels(daysBefore int) (ChannelSet, bool) {
	if daysBefore >= 0 {
		for _, iv := range c.EnabledIntervals() {
			if iv.DaysBefore == daysBefore {
				return ChannelSet{Email: iv.EmailEnabled, Conversation: iv.ConversationEnabled}, true
			}
		}
		return ChannelSet{}, false
	}

	if !c.OverdueEnabled() {
		return ChannelSet{}, false
	}
	o := c.OverdueReminders
	milestone := -daysBefore
	if milestone%o.IntervalDays != 0 || milestone > o.IntervalDays*o.MaxReminders {
		return ChannelSet{}, false
	}
	return ChannelSet{Email: o.EmailEnabled, Conversation: o.ConversationEnabled}, true
}
