package socket

import "testing"

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		vsn     string
		params  map[string]string
		want    string
		wantErr bool
	}{
		{"https", "https://example.com/socket", "2.0.0", nil, "wss://example.com/socket/websocket?vsn=2.0.0", false},
		{"http with trailing slash", "http://localhost:4000/socket/", "1.0.0", nil, "ws://localhost:4000/socket/websocket?vsn=1.0.0", false},
		{"already websocket", "ws://localhost:4000/socket/websocket", "2.0.0", nil, "ws://localhost:4000/socket/websocket?vsn=2.0.0", false},
		{"params sorted", "wss://example.com/socket", "2.0.0", map[string]string{"token": "abc", "a": "1"}, "wss://example.com/socket/websocket?a=1&token=abc&vsn=2.0.0", false},
		{"no vsn", "ws://example.com/socket", "", nil, "ws://example.com/socket/websocket", false},
		{"bad scheme", "ftp://example.com", "2.0.0", nil, "", true},
		{"no host", "ws:///socket", "2.0.0", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EndpointURL(tt.base, tt.vsn, tt.params)
			if (err != nil) != tt.wantErr {
				t.Fatalf("EndpointURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("EndpointURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
