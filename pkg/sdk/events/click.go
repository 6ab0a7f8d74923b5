package events

// ClickExtras describes the clicked element. Empty id and class are sent
// as JSON null, matching what the endpoint receives from browsers.
func ClickExtras(tag, id, class string) Extras {
	return Extras{
		"tag":   tag,
		"id":    nullable(id),
		"class": nullable(class),
	}
}

// ScrollExtras reports a scroll-depth threshold.
func ScrollExtras(percent int) Extras {
	return Extras{"percent": percent}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
