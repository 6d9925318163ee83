package winmd

// Namespaces and names the generator treats specially.
const (
	SystemNamespace     = "System"
	FoundationNamespace = "Windows.Foundation"
	MetadataNamespace   = "Windows.Foundation.Metadata"

	ObjectName            = "Object"
	ValueTypeName         = "ValueType"
	EnumName              = "Enum"
	MulticastDelegateName = "MulticastDelegate"
	AttributeName         = "Attribute"
	GuidName              = "Guid"
	FlagsAttributeName    = "FlagsAttribute"
)
