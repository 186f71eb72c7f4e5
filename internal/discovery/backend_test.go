package discovery

import (
	"testing"
)

func TestBackend_String(t *testing.T) {
	backend := &Backend{
		Instance: "bhregistry-frontdesk",
		Host:     "frontdesk.local.",
		IP:       "192.168.4.16",
		Port:     8000,
	}

	expected := "Registration backend bhregistry-frontdesk (frontdesk.local) at 192.168.4.16:8000"
	if backend.String() != expected {
		t.Errorf("Backend.String() = %v, want %v", backend.String(), expected)
	}
}

func TestBackend_BaseURL(t *testing.T) {
	tests := []struct {
		name     string
		backend  *Backend
		expected string
	}{
		{
			name:     "default port",
			backend:  &Backend{IP: "192.168.4.16", Port: 8000},
			expected: "http://192.168.4.16:8000",
		},
		{
			name:     "custom port",
			backend:  &Backend{IP: "10.0.0.5", Port: 8080},
			expected: "http://10.0.0.5:8080",
		},
		{
			name:     "IPv6 address is bracketed",
			backend:  &Backend{IP: "fe80::1", Port: 8000},
			expected: "http://[fe80::1]:8000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.backend.BaseURL(); got != tt.expected {
				t.Errorf("Backend.BaseURL() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBackend_GetMetadata(t *testing.T) {
	backend := &Backend{
		Metadata: map[string]string{
			"service": "bhregistry",
			"house":   "3",
		},
	}

	if got := backend.GetMetadata("service"); got != "bhregistry" {
		t.Errorf("GetMetadata(service) = %q, want %q", got, "bhregistry")
	}
	if got := backend.GetMetadata("missing"); got != "" {
		t.Errorf("GetMetadata(missing) = %q, want empty", got)
	}
	if got := backend.BoardingHouse(); got != 3 {
		t.Errorf("BoardingHouse() = %d, want 3", got)
	}

	empty := &Backend{}
	if got := empty.GetMetadata("service"); got != "" {
		t.Errorf("GetMetadata on nil metadata = %q, want empty", got)
	}
	if got := empty.BoardingHouse(); got != 0 {
		t.Errorf("BoardingHouse() on empty metadata = %d, want 0", got)
	}
}
