package logger

import (
	"log/slog"
	"time"
)

// Error logs err under "error". A nil error yields an empty attribute, which
// slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

func ShopDomain(domain string) slog.Attr {
	return slog.String("shop_domain", domain)
}

func ShopID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("shop_id", id)
}

func NoteID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("note_id", id)
}

func Plan(code string) slog.Attr {
	return slog.String("plan", code)
}

func RetryCount(n int) slog.Attr {
	return slog.Int("retry_count", n)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Event names a notable occurrence, e.g. "plan_downgraded".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

func ClientIP(ip string) slog.Attr {
	if ip == "" {
		return slog.Attr{}
	}
	return slog.String("client_ip", ip)
}
