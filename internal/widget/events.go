package widget

// Event names triggered on the Context.
const (
	// EventConfUpdated carries the new effective configuration.
	EventConfUpdated = "conf-updated"

	// EventMountError carries a *MountError.
	EventMountError = "mount-error"

	// EventMounted carries the effective configuration after a mount.
	EventMounted = "mounted"

	// EventDestroy is triggered with a nil payload by Instance.Destroy.
	EventDestroy = "destroy"
)

// Well-known service names.
const (
	ServiceAPI     = "api"
	ServiceVersion = "version"
)
