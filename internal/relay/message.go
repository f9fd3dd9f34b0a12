package relay

// SystemSender is the reserved sender label for server-generated notices.
const SystemSender = "System"

// Message is the payload relayed within a room. The media fields carry URLs
// produced by an external host; the relay treats them as opaque strings.
type Message struct {
	Text   string `json:"text"`
	Sender string `json:"sender"`
	Gif    string `json:"gif,omitempty"`
	Image  string `json:"image,omitempty"`
	Video  string `json:"video,omitempty"`
}

// IsSystem reports whether the message is a server-generated notice.
func (m Message) IsSystem() bool {
	return m.Sender == SystemSender
}

// HasMedia reports whether any media URL is attached.
func (m Message) HasMedia() bool {
	return m.Gif != "" || m.Image != "" || m.Video != ""
}

func systemJoinMessage(name string) Message {
	return Message{
		Text:   name + " joined the chat",
		Sender: SystemSender,
	}
}
