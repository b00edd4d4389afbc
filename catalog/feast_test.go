package catalog

import "testing"

func TestFeastCatalogCloseIdempotent(t *testing.T) {
	// 非阻塞 dial：构造不需要真实服务
	cat, err := NewFeastCatalog("127.0.0.1", 6565, "test")
	if err != nil {
		t.Skipf("grpc dial unavailable: %v", err)
	}
	if err := cat.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := cat.Close(); err != nil {
		t.Fatalf("second close = %v, want nil", err)
	}
}
