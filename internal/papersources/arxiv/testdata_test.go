package arxiv

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/">
  <title type="html">ArXiv Query</title>
  <opensearch:totalResults>1200</opensearch:totalResults>
  <opensearch:startIndex>0</opensearch:startIndex>
  <opensearch:itemsPerPage>2</opensearch:itemsPerPage>
  <entry>
    <id>http://arxiv.org/abs/2301.00001v2</id>
    <published>2023-01-02T18:30:00Z</published>
    <title>Multi Agent
      Coordination at Scale</title>
    <summary>  We study coordination.
      Agents cooperate.  </summary>
    <author><name>Ada Lovelace</name></author>
    <author><name> Alan  Turing </name></author>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/hep-th/9901001v1</id>
    <published>1999-01-01T00:00:00Z</published>
    <title>Old Physics</title>
    <summary>Strings.</summary>
    <author><name>Ed Witten</name></author>
  </entry>
</feed>`
