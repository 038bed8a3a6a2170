package components

const (
	StorageComponentName = "storage"
	ServiceComponentName = "service"
	ServerComponentName  = "server"
)
