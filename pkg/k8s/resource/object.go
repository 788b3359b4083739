/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package resource

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
	"k8s.io/client-go/kubernetes/scheme"
)

// ErrUnsupportedKind is returned when a manifest document decodes to a
// kind outside the managed set.
var ErrUnsupportedKind = errors.New("unsupported resource kind")

// Resource is implemented by every typed API object the harness manages.
type Resource interface {
	runtime.Object
	metav1.Object
}

// Object is a decoded manifest document: a typed API object classified
// under the closed Kind set.
type Object struct {
	Kind Kind
	Raw  Resource
}

// Name returns the object's metadata name.
func (o Object) Name() string {
	return o.Raw.GetName()
}

// Namespace returns the object's metadata namespace, empty when the
// manifest did not set one.
func (o Object) Namespace() string {
	return o.Raw.GetNamespace()
}

// EnsureNamespace stamps namespace on the object when its kind is
// namespaced and the manifest left the namespace unset. Cluster-scoped
// kinds are left untouched.
func (o Object) EnsureNamespace(namespace string) {
	if o.Kind.Namespaced() && o.Raw.GetNamespace() == "" {
		o.Raw.SetNamespace(namespace)
	}
}

// FromTyped wraps an already-typed API object, classifying it under the
// closed Kind set. It panics for types outside the managed set, which is
// a programming error rather than an input error.
func FromTyped(obj Resource) Object {
	kind := kindOf(obj)
	if kind == KindUnknown {
		panic(fmt.Sprintf("resource: unsupported type %T", obj))
	}
	return Object{Kind: kind, Raw: obj}
}

// Decode parses a single manifest document into a typed Object. Documents
// of kinds outside the managed set fail with ErrUnsupportedKind.
func Decode(doc []byte) (Object, error) {
	obj, gvk, err := scheme.Codecs.UniversalDeserializer().Decode(doc, nil, nil)
	if err != nil {
		return Object{}, fmt.Errorf("failed to decode manifest document: %w", err)
	}

	kind := kindOf(obj)
	if kind == KindUnknown {
		return Object{}, fmt.Errorf("%w: %s", ErrUnsupportedKind, gvk)
	}

	res, ok := obj.(Resource)
	if !ok {
		return Object{}, fmt.Errorf("%w: %s has no object metadata", ErrUnsupportedKind, gvk)
	}
	return Object{Kind: kind, Raw: res}, nil
}

// DecodeAll parses a multi-document YAML stream, skipping empty
// documents.
func DecodeAll(r io.Reader) ([]Object, error) {
	reader := utilyaml.NewYAMLReader(bufio.NewReader(r))

	var objects []Object
	for {
		doc, err := reader.Read()
		if err == io.EOF {
			return objects, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest stream: %w", err)
		}
		if strings.TrimSpace(string(doc)) == "" {
			continue
		}

		obj, err := Decode(doc)
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
}

// DecodeFile parses the multi-document content of a manifest file.
func DecodeFile(content []byte) ([]Object, error) {
	return DecodeAll(bytes.NewReader(content))
}
