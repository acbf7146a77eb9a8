// Model file loading for the sparrowctl CLI. A model file declares the
// entity types of a database in YAML:
//
//	entities:
//	  - name: User
//	    realtime: true
//	    key:
//	      auto: uid
//	    props:
//	      - name: name
//	        type: string
//	      - name: age
//	        type: int
//	        optional: true
//	  - name: Message
//	    key:
//	      auto: mid
//	    props:
//	      - name: text
//	    refs:
//	      - name: author
//	        target: User
//	        realtime: true
//
// Entities are declared in dependency order: a reference may only
// target an entity declared before it.
package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/evertheylen/sparrow/pkg/schema"
)

type modelFile struct {
	Entities []entityDecl `mapstructure:"entities"`
}

type entityDecl struct {
	Name     string     `mapstructure:"name"`
	Table    string     `mapstructure:"table"`
	RealTime bool       `mapstructure:"realtime"`
	Key      keyDecl    `mapstructure:"key"`
	Props    []propDecl `mapstructure:"props"`
	Refs     []refDecl  `mapstructure:"refs"`
}

type keyDecl struct {
	Auto string   `mapstructure:"auto"`
	On   []string `mapstructure:"on"`
}

type propDecl struct {
	Name     string `mapstructure:"name"`
	Type     string `mapstructure:"type"`
	Optional bool   `mapstructure:"optional"`
	Hidden   bool   `mapstructure:"hidden"`
}

type refDecl struct {
	Name     string `mapstructure:"name"`
	Target   string `mapstructure:"target"`
	RealTime bool   `mapstructure:"realtime"`
}

// loadModel reads a model file and builds its entity types in
// declaration order.
func loadModel(path string) ([]*schema.EntityType, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}

	var mf modelFile
	if err := v.Unmarshal(&mf); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	if len(mf.Entities) == 0 {
		return nil, fmt.Errorf("model %s declares no entities", path)
	}

	byName := make(map[string]*schema.EntityType, len(mf.Entities))
	out := make([]*schema.EntityType, 0, len(mf.Entities))
	for _, e := range mf.Entities {
		def := schema.Def{Table: e.Table, RealTime: e.RealTime}

		for _, p := range e.Props {
			typ, err := propType(p.Type)
			if err != nil {
				return nil, fmt.Errorf("entity %s: property %s: %w", e.Name, p.Name, err)
			}
			def.Props = append(def.Props, schema.Property{
				Name:     p.Name,
				Type:     typ,
				Optional: p.Optional,
				OmitJSON: p.Hidden,
			})
		}

		for _, r := range e.Refs {
			target, ok := byName[r.Target]
			if !ok {
				return nil, fmt.Errorf("entity %s: reference %s targets undeclared entity %s",
					e.Name, r.Name, r.Target)
			}
			def.Refs = append(def.Refs, schema.Reference{
				Name:     r.Name,
				Target:   target,
				RealTime: r.RealTime,
			})
		}

		switch {
		case e.Key.Auto != "":
			def.Key = schema.AutoKey(e.Key.Auto)
		case len(e.Key.On) > 0:
			def.Key = schema.KeyOn(e.Key.On...)
		default:
			return nil, fmt.Errorf("entity %s: key must declare auto or on", e.Name)
		}

		t, err := schema.Define(e.Name, def)
		if err != nil {
			return nil, err
		}
		byName[e.Name] = t
		out = append(out, t)
	}
	return out, nil
}

// propType maps the model file type name to the schema type. An empty
// name means string.
func propType(name string) (schema.Type, error) {
	switch name {
	case "int":
		return schema.Int, nil
	case "string", "":
		return schema.String, nil
	case "float":
		return schema.Float, nil
	case "bool":
		return schema.Bool, nil
	case "time":
		return schema.Time, nil
	default:
		return 0, fmt.Errorf("unknown type %q", name)
	}
}

// loadResolvedModel resolves the model path and loads it, exiting with
// a user error when no model is configured.
func loadResolvedModel() ([]*schema.EntityType, error) {
	path, ok := resolveModel()
	if !ok {
		return nil, fmt.Errorf("no model file: pass --model or set model in config.yaml")
	}
	return loadModel(path)
}
