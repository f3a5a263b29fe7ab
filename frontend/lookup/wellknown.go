package lookup

import "github.com/cottand/jinfer/frontend/types"

func (e *Environment) declareWellKnown() {
	e.Object = e.DeclareClass("Object").Type()

	e.Serializable = e.DeclareInterface("Serializable").Type()
	e.Cloneable = e.DeclareInterface("Cloneable").Type()
	e.CharSequence = e.DeclareInterface("CharSequence").Type()
	comparable := e.DeclareInterface("Comparable", "T")
	e.Comparable = comparable.Type()
	e.abstractMethod(comparable, "compareTo", e.Primitive(types.Int), nil, comparable.TypeParameters[0])

	str := e.DeclareClass("String")
	str.Final = true
	str.Interfaces = []*types.Type{e.Serializable, e.Parameterize(e.Comparable, str.Type()), e.CharSequence}
	e.String = str.Type()

	number := e.DeclareClass("Number")
	number.Abstract = true
	number.Interfaces = []*types.Type{e.Serializable}
	e.Number = number.Type()

	boxed := func(name string, p types.Primitive, super *types.Type) *types.Type {
		d := e.DeclareClass(name)
		d.Final = true
		if super != nil {
			d.Superclass = super
		} else {
			d.Interfaces = append(d.Interfaces, e.Serializable)
		}
		d.Interfaces = append(d.Interfaces, e.Parameterize(e.Comparable, d.Type()))
		e.boxes[p] = d.Type()
		return d.Type()
	}
	e.Integer = boxed("Integer", types.Int, e.Number)
	e.Long = boxed("Long", types.Long, e.Number)
	e.Double = boxed("Double", types.Double, e.Number)
	e.Float = boxed("Float", types.Float, e.Number)
	e.Short = boxed("Short", types.Short, e.Number)
	e.Byte = boxed("Byte", types.Byte, e.Number)
	e.Character = boxed("Character", types.Char, nil)
	e.Boolean = boxed("Boolean", types.Boolean, nil)

	iterable := e.DeclareInterface("Iterable", "T")
	e.Iterable = iterable.Type()
	collection := e.DeclareInterface("Collection", "E")
	collection.Interfaces = []*types.Type{e.Parameterize(e.Iterable, collection.TypeParameters[0])}
	e.Collection = collection.Type()
	list := e.DeclareInterface("List", "E")
	list.Interfaces = []*types.Type{e.Parameterize(e.Collection, list.TypeParameters[0])}
	e.List = list.Type()
	arrayList := e.DeclareClass("ArrayList", "E")
	arrayList.Interfaces = []*types.Type{e.Parameterize(e.List, arrayList.TypeParameters[0]), e.Cloneable, e.Serializable}
	e.ArrayList = arrayList.Type()

	e.Map = e.DeclareInterface("Map", "K", "V").Type()
	hashMap := e.DeclareClass("HashMap", "K", "V")
	hashMap.Interfaces = []*types.Type{e.Parameterize(e.Map, hashMap.TypeParameters...), e.Cloneable, e.Serializable}
	e.HashMap = hashMap.Type()

	throwable := e.DeclareClass("Throwable")
	throwable.Interfaces = []*types.Type{e.Serializable}
	e.Throwable = throwable.Type()
	e.Exception = e.subclass("Exception", e.Throwable)
	e.RuntimeException = e.subclass("RuntimeException", e.Exception)
	e.IOException = e.subclass("IOException", e.Exception)
	e.Error = e.subclass("Error", e.Throwable)

	void := e.Primitive(types.Void)
	runnable := e.DeclareInterface("Runnable")
	e.abstractMethod(runnable, "run", void, nil)
	e.Runnable = runnable.Type()

	supplier := e.DeclareInterface("Supplier", "T")
	e.abstractMethod(supplier, "get", supplier.TypeParameters[0], nil)
	e.Supplier = supplier.Type()

	consumer := e.DeclareInterface("Consumer", "T")
	e.abstractMethod(consumer, "accept", void, nil, consumer.TypeParameters[0])
	e.Consumer = consumer.Type()

	function := e.DeclareInterface("Function", "T", "R")
	e.abstractMethod(function, "apply", function.TypeParameters[1], nil, function.TypeParameters[0])
	e.Function = function.Type()

	biFunction := e.DeclareInterface("BiFunction", "T", "U", "R")
	params := biFunction.TypeParameters
	e.abstractMethod(biFunction, "apply", params[2], nil, params[0], params[1])
	e.BiFunction = biFunction.Type()

	callable := e.DeclareInterface("Callable", "V")
	e.abstractMethod(callable, "call", callable.TypeParameters[0], []*types.Type{e.Exception})
	e.Callable = callable.Type()
}

func (e *Environment) subclass(name string, super *types.Type) *types.Type {
	d := e.DeclareClass(name)
	d.Superclass = super
	return d.Type()
}

func (e *Environment) abstractMethod(owner *types.Decl, name string, returns *types.Type, thrown []*types.Type, params ...*types.Type) {
	m := e.DeclareMethod(owner, name)
	m.Abstract = true
	m.Return = returns
	m.Parameters = params
	m.Thrown = thrown
}
