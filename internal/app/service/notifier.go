package service

// ChangeNotifier fans a "wishlist changed" marker out to live viewers. It is
// called only after a mutation has committed.
type ChangeNotifier interface {
	NotifyWishlistChanged(slug string)
}

// NoopNotifier drops every notification.
type NoopNotifier struct{}

func (NoopNotifier) NotifyWishlistChanged(string) {}
