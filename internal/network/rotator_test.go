package network

import (
	"errors"
	"testing"
	"time"
)

func TestRotatorRoundRobin(t *testing.T) {
	rotator, err := NewRotator([]string{"http://a:8080", " http://b:8080 "}, time.Minute)
	if err != nil {
		t.Fatalf("NewRotator() error = %v", err)
	}
	if rotator.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", rotator.Len())
	}

	var hosts []string
	for i := 0; i < 3; i++ {
		proxy, err := rotator.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		hosts = append(hosts, proxy.Host)
	}
	if hosts[0] != "a:8080" || hosts[1] != "b:8080" || hosts[2] != "a:8080" {
		t.Fatalf("hosts = %v", hosts)
	}
}

func TestRotatorBansRateLimitedProxy(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rotator, err := NewRotator([]string{"http://a:8080", "http://b:8080"}, time.Minute)
	if err != nil {
		t.Fatalf("NewRotator() error = %v", err)
	}
	rotator.now = func() time.Time { return now }

	first, _ := rotator.Next()
	rotator.Report(first, 429)

	for i := 0; i < 2; i++ {
		proxy, err := rotator.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if proxy.Host != "b:8080" {
			t.Fatalf("banned proxy returned: %s", proxy.Host)
		}
	}

	second, _ := rotator.Next()
	rotator.Report(second, 403)
	if _, err := rotator.Next(); !errors.Is(err, ErrNoProxies) {
		t.Fatalf("Next() error = %v, want ErrNoProxies", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := rotator.Next(); err != nil {
		t.Fatalf("Next() after ban expiry error = %v", err)
	}
}

func TestRotatorIgnoresOtherStatuses(t *testing.T) {
	rotator, _ := NewRotator([]string{"http://a:8080"}, time.Minute)
	proxy, _ := rotator.Next()
	rotator.Report(proxy, 500)
	if _, err := rotator.Next(); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
}

func TestNewRotatorRejectsBareHosts(t *testing.T) {
	if _, err := NewRotator([]string{"proxy.local"}, time.Minute); err == nil {
		t.Fatalf("NewRotator() error = nil, want error")
	}
	rotator, err := NewRotator(nil, time.Minute)
	if err != nil {
		t.Fatalf("NewRotator(nil) error = %v", err)
	}
	if _, err := rotator.Next(); !errors.Is(err, ErrNoProxies) {
		t.Fatalf("Next() error = %v, want ErrNoProxies", err)
	}
}
