package pie

// ContainerCodec converts between PIE 3 models and an external container
// format such as glTF. Implementations only use exported model fields.
type ContainerCodec[T any] interface {
	FromPie3(m *Pie3Model) (T, error)
	ToPie3(c T) (*Pie3Model, error)
}

// ExportDocument converts doc to the container, up-converting PIE 2 first.
func ExportDocument[T any](codec ContainerCodec[T], doc Document) (T, error) {
	var zero T
	d, err := ConvertTo(doc, 3)
	if err != nil {
		return zero, err
	}
	return codec.FromPie3(d.(*Pie3Model))
}

// ImportDocument converts a container to a document of the given version.
func ImportDocument[T any](codec ContainerCodec[T], c T, version int) (Document, error) {
	m, err := codec.ToPie3(c)
	if err != nil {
		return nil, err
	}
	return ConvertTo(m, version)
}
